// Package pattern evaluates site-specific XPath patterns against raw HTML.
package pattern

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// ErrEmptyPattern is returned when an empty pattern is evaluated.
var ErrEmptyPattern = errors.New("empty pattern")

// Error reports a pattern that could not be compiled or content that could
// not be parsed.
type Error struct {
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// XPath matches XPath 1.0 expressions against HTML documents. Compiled
// expressions are cached per pattern string.
//
// Matches are returned as strings: attribute and text nodes yield their
// value, element nodes yield their outer HTML (MatchAll, MatchOne) or their
// text content (MatchText).
type XPath struct {
	mu    sync.Mutex
	cache map[string]*xpath.Expr
}

// NewXPath creates an XPath extractor.
func NewXPath() *XPath {
	return &XPath{cache: make(map[string]*xpath.Expr)}
}

// MatchAll returns every match of pattern in content, in document order.
// No match is not an error.
func (x *XPath) MatchAll(content, pattern string) ([]string, error) {
	return x.match(content, pattern, 0, false)
}

// MatchText is like MatchAll but element nodes yield their text content
// instead of their markup.
func (x *XPath) MatchText(content, pattern string) ([]string, error) {
	return x.match(content, pattern, 0, true)
}

// MatchOne returns the first match of pattern in content.
func (x *XPath) MatchOne(content, pattern string) (string, bool, error) {
	matches, err := x.match(content, pattern, 1, false)
	if err != nil || len(matches) == 0 {
		return "", false, err
	}
	return matches[0], true, nil
}

func (x *XPath) match(content, pattern string, limit int, text bool) ([]string, error) {
	expr, err := x.compile(pattern)
	if err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &Error{Pattern: pattern, Err: fmt.Errorf("parse html: %w", err)}
	}

	var matches []string
	iter := expr.Select(htmlquery.CreateXPathNavigator(doc))
	for iter.MoveNext() {
		matches = append(matches, nodeString(iter.Current(), text))
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func (x *XPath) compile(pattern string) (*xpath.Expr, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, &Error{Pattern: pattern, Err: ErrEmptyPattern}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if expr, ok := x.cache[pattern]; ok {
		return expr, nil
	}
	expr, err := xpath.Compile(pattern)
	if err != nil {
		return nil, &Error{Pattern: pattern, Err: err}
	}
	x.cache[pattern] = expr
	return expr, nil
}

func nodeString(nav xpath.NodeNavigator, text bool) string {
	switch nav.NodeType() {
	case xpath.AttributeNode, xpath.TextNode, xpath.CommentNode:
		return nav.Value()
	}
	if hn, ok := nav.(*htmlquery.NodeNavigator); ok && !text {
		node := hn.Current()
		if node.Type == html.ElementNode {
			return htmlquery.OutputHTML(node, true)
		}
	}
	return nav.Value()
}
