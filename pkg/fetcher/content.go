package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/sitecrawl/internal/logger"
)

// pageTitle returns the whitespace-normalized document title. A page that
// cannot be parsed has no title; it is still a successful fetch.
func pageTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("page title not parsable", "error", err)
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
