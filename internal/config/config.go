// Package config loads application settings and site definitions.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitecrawl/internal/article"
	"github.com/jmylchreest/sitecrawl/internal/store"
	"github.com/jmylchreest/sitecrawl/pkg/fetcher"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "SITECRAWL"

// App is the application configuration.
type App struct {
	Mongo store.MongoConfig `mapstructure:"mongo"`
	Fetch FetchConfig       `mapstructure:"fetch"`
	Crawl CrawlConfig       `mapstructure:"crawl"`
}

// Crawl defaults used when neither a flag, the environment nor the config
// file sets a value.
const (
	DefaultSitesFile = "sites.yaml"
	DefaultMaxPages  = 10
)

// FetchConfig selects and tunes the page fetcher.
type FetchConfig struct {
	Mode           string        `mapstructure:"mode" validate:"oneof=static proxy dynamic"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent      string        `mapstructure:"user_agent"`
	ProxyAPIURL    string        `mapstructure:"proxy_api_url" validate:"omitempty,url"`
	ProxyAPIKey    string        `mapstructure:"proxy_api_key" validate:"required_if=Mode proxy"`
	ChromePath     string        `mapstructure:"chrome_path"`
	Stealth        bool          `mapstructure:"stealth"`
	AcceptLanguage string        `mapstructure:"accept_language"` // dynamic mode, e.g. "de-DE,de;q=0.9"
}

// Fetcher converts the section into a fetcher configuration.
func (f FetchConfig) Fetcher() fetcher.Config {
	return fetcher.Config{
		Mode:           fetcher.Mode(f.Mode),
		UserAgent:      f.UserAgent,
		Timeout:        f.Timeout,
		ProxyAPIURL:    f.ProxyAPIURL,
		ProxyAPIKey:    f.ProxyAPIKey,
		ChromePath:     f.ChromePath,
		Stealth:        f.Stealth,
		AcceptLanguage: f.AcceptLanguage,
	}
}

// CrawlConfig holds crawl run settings.
type CrawlConfig struct {
	SitesFile    string `mapstructure:"sites_file" validate:"required"`
	MaxPages     int    `mapstructure:"max_pages" validate:"gte=0"`
	UntilDate    string `mapstructure:"until_date"`
	Schedule     string `mapstructure:"schedule"`
	SkipOutdated bool   `mapstructure:"skip_outdated"`
}

// Register sets defaults and environment bindings on v. MONGO_HOST and
// ZENROWS_API_KEY are honored for existing deployments.
func Register(v *viper.Viper) {
	mongo := store.DefaultMongoConfig()
	fetch := fetcher.DefaultConfig()

	v.SetDefault("mongo.uri", mongo.URI)
	v.SetDefault("mongo.database", mongo.Database)
	v.SetDefault("mongo.collection", mongo.Collection)
	v.SetDefault("mongo.timeout", mongo.Timeout)

	v.SetDefault("fetch.mode", string(fetch.Mode))
	v.SetDefault("fetch.timeout", fetch.Timeout)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.proxy_api_url", fetch.ProxyAPIURL)
	v.SetDefault("fetch.proxy_api_key", "")
	v.SetDefault("fetch.chrome_path", "")
	v.SetDefault("fetch.stealth", false)
	v.SetDefault("fetch.accept_language", fetch.AcceptLanguage)

	v.SetDefault("crawl.sites_file", DefaultSitesFile)
	v.SetDefault("crawl.max_pages", DefaultMaxPages)
	v.SetDefault("crawl.until_date", "")
	v.SetDefault("crawl.schedule", "")
	v.SetDefault("crawl.skip_outdated", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("mongo.uri", EnvPrefix+"_MONGO_URI", "MONGO_HOST")
	_ = v.BindEnv("mongo.database", EnvPrefix+"_MONGO_DATABASE", "MONGO_DATABASE")
	_ = v.BindEnv("mongo.collection", EnvPrefix+"_MONGO_COLLECTION", "MONGO_COLLECTION")
	_ = v.BindEnv("fetch.proxy_api_key", EnvPrefix+"_FETCH_PROXY_API_KEY", "ZENROWS_API_KEY")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (App, error) {
	var app App
	if err := v.Unmarshal(&app); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if err := app.Validate(); err != nil {
		return App{}, err
	}
	return app, nil
}

// Validate checks the configuration.
func (a App) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if a.Crawl.UntilDate != "" {
		if err := article.ValidateCutoff(a.Crawl.UntilDate); err != nil {
			return fmt.Errorf("invalid config: crawl.until_date: %w", err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())
