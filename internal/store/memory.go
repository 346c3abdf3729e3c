package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used for dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]Document
	order  []string
	closed bool
}

// NewMemory creates an empty in-memory store, optionally seeded with docs.
func NewMemory(docs ...Document) *Memory {
	m := &Memory{docs: make(map[string]Document)}
	for _, d := range docs {
		m.docs[d.URL()] = d
		m.order = append(m.order, d.URL())
	}
	return m
}

// Opener returns an Opener that reopens this store for every run.
func (m *Memory) Opener() Opener {
	return func(context.Context) (Store, error) {
		m.mu.Lock()
		m.closed = false
		m.mu.Unlock()
		return m, nil
	}
}

func (m *Memory) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, wrap("exists", ErrClosed)
	}
	_, ok := m.docs[url]
	return ok, nil
}

func (m *Memory) Insert(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return wrap("insert", ErrClosed)
	}
	url := doc.URL()
	if _, ok := m.docs[url]; ok {
		return wrap("insert", ErrDuplicate)
	}
	m.docs[url] = cloneDoc(doc)
	m.order = append(m.order, url)
	return nil
}

func (m *Memory) UpdateFields(_ context.Context, url string, set map[string]any, unset []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return wrap("update", ErrClosed)
	}
	doc, ok := m.docs[url]
	if !ok {
		return wrap("update", ErrNotFound)
	}
	for k, v := range set {
		doc[k] = v
	}
	for _, k := range unset {
		delete(doc, k)
	}
	return nil
}

func (m *Memory) FindMissingDate(_ context.Context, siteName string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, wrap("find", ErrClosed)
	}
	var out []Document
	for _, url := range m.order {
		doc := m.docs[url]
		if doc[FieldVisited] != true || doc[FieldSiteName] != siteName {
			continue
		}
		if _, ok := doc[FieldParsedDate]; ok {
			continue
		}
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

func (m *Memory) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Documents returns copies of all stored documents in insertion order.
func (m *Memory) Documents() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, 0, len(m.order))
	for _, url := range m.order {
		out = append(out, cloneDoc(m.docs[url]))
	}
	return out
}

// Closed reports whether the last session was closed.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func cloneDoc(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
