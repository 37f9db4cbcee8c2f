package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/fetch"
)

var titleSuffixes = []string{" | Shopify", " - Shopify", " Store", " Shop"}

// BrandName derives the display name: page title minus platform suffixes, then logo alt text,
// then the bare domain.
func BrandName(p *Page, domain string) string {
	chain := []func() string{
		func() string { return trimTitleSuffixes(p.Title()) },
		func() string { return logoAlt(p) },
		func() string { return fetch.StripWWW(domain) },
	}
	for _, candidate := range chain {
		if name := candidate(); name != "" {
			return name
		}
	}
	return ""
}

func trimTitleSuffixes(title string) string {
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(title, suffix) {
			title = strings.TrimSpace(strings.TrimSuffix(title, suffix))
		}
	}
	return title
}

func logoAlt(p *Page) string {
	var alt string
	p.Doc.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if !classContains(img, "logo") {
			return true
		}
		alt = strings.TrimSpace(img.AttrOr("alt", ""))
		return alt == ""
	})
	return alt
}
