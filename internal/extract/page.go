// Package extract turns storefront markup into typed profile fields.
//
// Each extractor is an ordered chain of strategies over one parsed page. Pages are shared read-only
// between concurrent extractors, so nothing in this package mutates a document.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/fetch"
)

// Page is a parsed HTML document and the URL it was served from.
type Page struct {
	Doc *goquery.Document
	URL *url.URL
}

// Parse builds a Page from a response body.
func Parse(rawURL string, body []byte) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	doc.Url = u
	return &Page{Doc: doc, URL: u}, nil
}

// String returns the page URL.
func (p *Page) String() string {
	if p == nil || p.URL == nil {
		return ""
	}
	return p.URL.String()
}

// Resolve joins ref against the page URL, rejecting non-http(s) targets.
func (p *Page) Resolve(ref string) (string, bool) {
	return fetch.Resolve(p.URL, ref)
}

// Title returns the cleaned text of the first <title> element.
func (p *Page) Title() string {
	return CleanText(p.Doc.Find("title").First().Text())
}

// classContains reports whether the element's class attribute contains any needle, ignoring case.
func classContains(sel *goquery.Selection, needles ...string) bool {
	class := strings.ToLower(sel.AttrOr("class", ""))
	if class == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(class, n) {
			return true
		}
	}
	return false
}

func idContains(sel *goquery.Selection, needle string) bool {
	return strings.Contains(strings.ToLower(sel.AttrOr("id", "")), needle)
}
