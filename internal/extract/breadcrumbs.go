package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

var breadcrumbSelectors = []string{
	".breadcrumb", ".breadcrumbs", "[data-breadcrumb]", ".navigation-breadcrumbs", ".page-breadcrumb",
	`nav[aria-label="breadcrumb"]`, `nav[aria-label="breadcrumbs"]`,
}

// Breadcrumbs returns the page's navigation trail: structured BreadcrumbList data first,
// then the first breadcrumb container in the markup.
func Breadcrumbs(p *Page) []storefront.Breadcrumb {
	return FirstNonEmpty(p, []Strategy[storefront.Breadcrumb]{
		{Name: "json-ld", Run: breadcrumbsFromJSONLD},
		{Name: "markup", Run: breadcrumbsFromMarkup},
	})
}

func breadcrumbsFromJSONLD(p *Page) []storefront.Breadcrumb {
	for _, node := range jsonLDNodes(p) {
		if !hasType(node, "BreadcrumbList") {
			continue
		}
		var out []storefront.Breadcrumb
		for _, item := range listField(node, "itemListElement") {
			name := stringField(item, "name")
			ref := stringField(item, "item")
			if name == "" {
				if nested := objectField(item, "item"); nested != nil {
					name = stringField(nested, "name")
				}
			}
			crumb := storefront.Breadcrumb{Name: CleanText(name)}
			if abs, ok := p.Resolve(ref); ok {
				crumb.URL = &abs
			}
			out = append(out, crumb)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func breadcrumbsFromMarkup(p *Page) []storefront.Breadcrumb {
	for _, selector := range breadcrumbSelectors {
		container := p.Doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		var out []storefront.Breadcrumb
		container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			crumb := storefront.Breadcrumb{Name: ElementText(a)}
			if abs, ok := p.Resolve(a.AttrOr("href", "")); ok {
				crumb.URL = &abs
			}
			out = append(out, crumb)
		})
		return out
	}
	return nil
}
