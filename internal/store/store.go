// Package store persists crawled articles.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Document field names written by the crawler.
const (
	FieldURL        = "url"
	FieldVisited    = "visited"
	FieldSiteName   = "site_name"
	FieldParsedDate = "parsed_date"
)

// Document is a stored article: the extracted fields plus crawl metadata.
type Document map[string]any

// NewDocument merges extracted fields with the crawl metadata. Metadata wins
// on key collisions.
func NewDocument(url, siteName string, fields map[string]any) Document {
	doc := make(Document, len(fields)+3)
	for k, v := range fields {
		doc[k] = v
	}
	doc[FieldURL] = url
	doc[FieldVisited] = true
	doc[FieldSiteName] = siteName
	return doc
}

// URL returns the document's url field.
func (d Document) URL() string {
	u, _ := d[FieldURL].(string)
	return u
}

var (
	// ErrDuplicate indicates a document with the same URL already exists.
	ErrDuplicate = errors.New("duplicate url")
	// ErrNotFound indicates no document matched.
	ErrNotFound = errors.New("document not found")
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store closed")
)

// StoreError reports a persistence failure: lost connectivity or a
// constraint violation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Store is the article document store.
type Store interface {
	// Exists reports whether a document with this exact URL is stored.
	Exists(ctx context.Context, url string) (bool, error)

	// Insert stores a new document. URLs are unique.
	Insert(ctx context.Context, doc Document) error

	// UpdateFields sets and unsets fields on the document with this URL.
	UpdateFields(ctx context.Context, url string, set map[string]any, unset []string) error

	// FindMissingDate returns visited documents of a site without a parsed date.
	FindMissingDate(ctx context.Context, siteName string) ([]Document, error)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Opener opens a store session scoped to one run.
type Opener func(ctx context.Context) (Store, error)
