// Package output renders command results as tables, JSON, JSONL or YAML.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", name)
}

// Row is implemented by records that can be shown in a table.
type Row interface {
	TableHeader() []string
	TableRow() []any
}

// Writer serializes records.
type Writer interface {
	// Write adds a single record.
	Write(record any) error

	// Flush writes any buffered records.
	Flush() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	title string
}

// WithTitle sets the table title.
func WithTitle(title string) WriterOption {
	return func(c *writerConfig) {
		c.title = title
	}
}

// NewWriter creates a writer for format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatTable:
		return newTableWriter(w, cfg.title), nil
	case FormatJSON:
		return newJSONWriter(w), nil
	case FormatJSONL:
		return newJSONLWriter(w), nil
	case FormatYAML:
		return newYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteAll writes every record and flushes.
func WriteAll[T any](w Writer, records []T) error {
	for _, r := range records {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

// buffer collects records for formats that render them together.
type buffer struct {
	items []any
}

func (b *buffer) Write(record any) error {
	b.items = append(b.items, record)
	return nil
}

// document returns a lone record as itself and several as a list.
func (b *buffer) document() any {
	if len(b.items) == 1 {
		return b.items[0]
	}
	if b.items == nil {
		return []any{}
	}
	return b.items
}
