// Package article extracts structured fields from article pages using
// per-site scrape patterns.
package article

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// ParsedDateField is the field that carries an article's normalized date.
const ParsedDateField = "parsed_date"

// FieldPattern describes how one field is extracted.
type FieldPattern struct {
	Pattern  string `json:"pattern" yaml:"pattern" validate:"required"`
	Multiple bool   `json:"multiple,omitempty" yaml:"multiple,omitempty"` // Keep every match as a list
	Date     bool   `json:"date,omitempty" yaml:"date,omitempty"`         // Normalize into parsed_date
	Layout   string `json:"layout,omitempty" yaml:"layout,omitempty"`     // Go time layout, dateparse when empty
	Order    string `json:"order,omitempty" yaml:"order,omitempty" validate:"omitempty,oneof=dmy mdy strict"`
}

// fieldPatternAlias avoids recursion in UnmarshalYAML.
type fieldPatternAlias FieldPattern

// UnmarshalYAML accepts either a bare pattern string or a mapping.
//
//	title: //h1//text()
//	paragraphs: {pattern: //p//text(), multiple: true}
func (f *FieldPattern) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FieldPattern{Pattern: node.Value}
		return nil
	}
	var alias fieldPatternAlias
	if err := node.Decode(&alias); err != nil {
		return err
	}
	*f = FieldPattern(alias)
	return nil
}

// ScrapePatterns maps field names to their patterns.
type ScrapePatterns map[string]FieldPattern

// Names returns the field names in a stable order.
func (p ScrapePatterns) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields is the result of extracting one article page.
type Fields map[string]any

// Date returns the normalized article date, if one was extracted.
func (f Fields) Date() (string, bool) {
	d, ok := f[ParsedDateField].(string)
	return d, ok && d != ""
}

// Matcher evaluates a pattern against page content.
type Matcher interface {
	MatchText(content, pattern string) ([]string, error)
}

// Extract applies every pattern to content. Fields with no match are
// omitted. The first date field (by name) that parses becomes parsed_date
// in YYYY-MM-DD form.
func Extract(m Matcher, content string, patterns ScrapePatterns) (Fields, error) {
	fields := make(Fields, len(patterns)+1)

	for _, name := range patterns.Names() {
		fp := patterns[name]

		matches, err := m.MatchText(content, fp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		values := cleanAll(matches)
		if len(values) == 0 {
			continue
		}

		if fp.Multiple {
			fields[name] = values
		} else {
			fields[name] = strings.Join(values, " ")
		}

		if !fp.Date {
			continue
		}
		if _, done := fields.Date(); done {
			continue
		}
		raw := strings.Join(values, " ")
		t, err := ParseDate(raw, fp.Layout, fp.Order)
		if err != nil {
			logger.Debug("article date not parsable", "field", name, "value", raw, "error", err)
			continue
		}
		fields[ParsedDateField] = t.Format(DateLayout)
	}

	return fields, nil
}

func cleanAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = cleanText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
