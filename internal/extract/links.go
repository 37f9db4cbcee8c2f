package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Keyword tables for link discovery, matched against lowercased anchor text and href.
var (
	AboutTerms    = []string{"about", "our story", "who we are", "about us", "company", "mission"}
	ContactTerms  = []string{"contact", "support", "contact us", "get in touch", "reach us"}
	BlogTerms     = []string{"blog", "news", "articles", "stories", "journal"}
	TrackingTerms = []string{"track", "tracking", "order status", "track order", "my orders"}
)

// LinkByTerms returns the first resolvable anchor whose text or href contains any term.
func LinkByTerms(p *Page, terms []string) *string {
	var found *string
	p.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		text := strings.ToLower(CleanText(a.Text()))
		lowerHref := strings.ToLower(href)
		for _, term := range terms {
			if strings.Contains(text, term) || strings.Contains(lowerHref, term) {
				if abs, ok := p.Resolve(href); ok {
					found = &abs
					return false
				}
				break
			}
		}
		return true
	})
	return found
}

// hrefContaining returns the first resolvable anchor whose raw href contains marker.
func hrefContaining(p *Page, marker string) *string {
	var found *string
	p.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, marker) {
			return true
		}
		if abs, ok := p.Resolve(href); ok {
			found = &abs
			return false
		}
		return true
	})
	return found
}

// AboutLink guesses the about page.
func AboutLink(p *Page) *string { return LinkByTerms(p, AboutTerms) }

// ContactLink guesses the contact page.
func ContactLink(p *Page) *string { return LinkByTerms(p, ContactTerms) }

// TrackingLink guesses the order tracking page.
func TrackingLink(p *Page) *string { return LinkByTerms(p, TrackingTerms) }

// BlogLink prefers a Shopify-style /blogs link before falling back to keyword terms.
func BlogLink(p *Page) *string {
	if link := hrefContaining(p, "/blogs"); link != nil {
		return link
	}
	return LinkByTerms(p, BlogTerms)
}
