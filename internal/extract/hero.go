package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// Hero product limits.
const (
	HeroMax         = 20
	HeroFallbackMax = 10
)

const productPathMarker = "/products/"

// heroContainers are tried in order; the first one holding product links wins.
var heroContainers = []string{
	"main", `[role="main"]`, ".main-content", "#main",
	".hero", ".featured", ".products", ".collection",
	".homepage-products", ".featured-products",
}

// heroTitle is the per-link title fallback chain.
var heroTitle = []func(*goquery.Selection) string{
	func(a *goquery.Selection) string { return ElementText(a) },
	func(a *goquery.Selection) string { return strings.TrimSpace(a.Find("img[alt]").First().AttrOr("alt", "")) },
	func(a *goquery.Selection) string { return strings.TrimSpace(a.AttrOr("aria-label", "")) },
	func(a *goquery.Selection) string { return strings.TrimSpace(a.AttrOr("data-product-title", "")) },
}

// HeroProducts finds the featured products linked from the home page.
func HeroProducts(p *Page) []storefront.Product {
	links := FirstNonEmpty(p, []Strategy[storefront.Product]{
		{Name: "containers", Run: heroFromContainers},
		{Name: "global", Run: heroFromAllLinks},
	})
	structured := run(p, Strategy[storefront.Product]{Name: "json-ld", Run: heroFromJSONLD})
	merged := dedupe(append(links, structured...), func(prod storefront.Product) string {
		if prod.URL == nil {
			return ""
		}
		return *prod.URL
	})
	return capped(merged, HeroMax)
}

func heroFromContainers(p *Page) []storefront.Product {
	for _, selector := range heroContainers {
		container := p.Doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		if found := productLinks(p, container, HeroMax, true); len(found) > 0 {
			return found
		}
	}
	return nil
}

func heroFromAllLinks(p *Page) []storefront.Product {
	return productLinks(p, p.Doc.Selection, HeroFallbackMax, false)
}

func productLinks(p *Page, scope *goquery.Selection, limit int, fullTitleChain bool) []storefront.Product {
	var out []storefront.Product
	seen := map[string]struct{}{}
	scope.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, productPathMarker) {
			return true
		}
		abs, ok := p.Resolve(href)
		if !ok {
			return true
		}
		abs = canonicalProductURL(abs)
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}

		title := ElementText(a)
		if fullTitleChain {
			title = firstNonEmptyString(a, heroTitle)
		}
		if title == "" {
			title = "Product"
		}
		out = append(out, storefront.Product{Title: title, URL: storefront.Ptr(abs)})
		return len(out) < limit
	})
	return out
}

func heroFromJSONLD(p *Page) []storefront.Product {
	var out []storefront.Product
	for _, node := range jsonLDNodes(p) {
		if !hasType(node, "Product") {
			continue
		}
		name := stringField(node, "name")
		ref := stringField(node, "url")
		if name == "" || ref == "" {
			continue
		}
		abs, ok := p.Resolve(ref)
		if !ok {
			continue
		}
		prod := storefront.Product{Title: CleanText(name), URL: storefront.Ptr(canonicalProductURL(abs))}
		if sku := stringField(node, "sku"); sku != "" {
			prod.ID = storefront.Ptr(sku)
		}
		if img := jsonLDImage(p, node); img != "" {
			prod.Image = storefront.Ptr(img)
		}
		out = append(out, prod)
	}
	return out
}

func jsonLDImage(p *Page, node jsonObject) string {
	var ref string
	switch v := node["image"].(type) {
	case string:
		ref = v
	case []any:
		if len(v) > 0 {
			ref, _ = v[0].(string)
		}
	case jsonObject:
		ref, _ = v["url"].(string)
	}
	if abs, ok := p.Resolve(ref); ok {
		return abs
	}
	return ""
}

// canonicalProductURL drops the query and fragment so variant links collapse to one product.
func canonicalProductURL(abs string) string {
	u, err := url.Parse(abs)
	if err != nil {
		return abs
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func firstNonEmptyString(sel *goquery.Selection, chain []func(*goquery.Selection) string) string {
	for _, fn := range chain {
		if v := fn(sel); v != "" {
			return v
		}
	}
	return ""
}
