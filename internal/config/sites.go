package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/crawler"
)

// ErrNoSites is returned when a sites file defines no sites.
var ErrNoSites = errors.New("no sites defined")

// Site is one crawlable site definition.
type Site struct {
	crawler.Target `yaml:",inline"`

	Patterns crawler.SitePatterns   `yaml:"site_patterns" json:"site_patterns"`
	Scrape   article.ScrapePatterns `yaml:"scrape_patterns" json:"scrape_patterns" validate:"required,min=1,dive"`
}

// Name returns the site name.
func (s Site) Name() string {
	return s.SiteName
}

type sitesFile struct {
	Sites []Site `yaml:"sites" validate:"dive"`
}

// LoadSites reads site definitions from a YAML file.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	sites, err := ParseSites(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sites, nil
}

// ParseSites decodes and validates site definitions.
//
//	sites:
//	  - site_name: example
//	    base_url: https://news.example.com/
//	    site_patterns:
//	      topics_urls: //nav//a/@href
//	      must_exist: //div[@class='teasers']
//	      articles: //article/a/@href
//	    scrape_patterns:
//	      title: //h1
func ParseSites(data []byte) ([]Site, error) {
	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sites: %w", err)
	}
	if len(file.Sites) == 0 {
		return nil, ErrNoSites
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid sites: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Sites))
	for _, s := range file.Sites {
		if _, dup := seen[s.SiteName]; dup {
			return nil, fmt.Errorf("duplicate site %q", s.SiteName)
		}
		seen[s.SiteName] = struct{}{}
	}
	return file.Sites, nil
}

// SelectSites returns the named sites in the order given. No names selects
// every site.
func SelectSites(sites []Site, names []string) ([]Site, error) {
	if len(names) == 0 {
		return sites, nil
	}

	byName := make(map[string]Site, len(sites))
	for _, s := range sites {
		byName[s.SiteName] = s
	}

	selected := make([]Site, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown site %q", n)
		}
		selected = append(selected, s)
	}
	return selected, nil
}
