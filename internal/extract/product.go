package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

var (
	productTitleSelectors = []string{
		"h1.product-title", "h1.product-name", ".product-title", ".product-name", "h1", "[data-product-title]",
	}
	productPriceSelectors = []string{
		".price", ".product-price", "[data-price]", ".money", ".price-current", ".sale-price", ".regular-price",
	}
	productImageSelectors = []string{
		".product-image img", ".product-photo img", "[data-product-image]", ".main-image img", ".hero-image img",
	}
	availabilitySelectors = []string{
		".in-stock", ".available", ".out-of-stock", ".sold-out", "[data-availability]", ".inventory-status",
	}
	priceRE = regexp.MustCompile(`[$£€¥]?\d+(?:[.,]\d{2})?`)
)

// ProductDetails reads title, price, image and availability from a product page.
func ProductDetails(p *Page) storefront.Product {
	prod := storefront.Product{URL: storefront.Ptr(p.String())}

	if el := firstMatch(p, productTitleSelectors); el != nil {
		prod.Title = ElementText(el)
	}
	for _, selector := range productPriceSelectors {
		el := p.Doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		if m := priceRE.FindString(ElementText(el)); m != "" {
			prod.Price = storefront.Ptr(m)
			break
		}
	}
	for _, selector := range productImageSelectors {
		el := p.Doc.Find(selector).First()
		src := el.AttrOr("src", "")
		if src == "" {
			continue
		}
		if abs, ok := p.Resolve(src); ok {
			prod.Image = &abs
			break
		}
	}
	prod.Available = availability(p)
	prod.Breadcrumbs = Breadcrumbs(p)
	return prod
}

func availability(p *Page) *bool {
	if el := firstMatch(p, availabilitySelectors); el != nil {
		text := strings.ToLower(ElementText(el))
		switch {
		case strings.Contains(text, "out of stock"), strings.Contains(text, "sold out"):
			return storefront.Ptr(false)
		case strings.Contains(text, "in stock"), strings.Contains(text, "available"):
			return storefront.Ptr(true)
		}
		return nil
	}
	cart := p.Doc.Find("[data-add-to-cart], .add-to-cart, .btn-add-to-cart").First()
	if cart.Length() == 0 {
		return nil
	}
	_, disabled := cart.Attr("disabled")
	return storefront.Ptr(!disabled)
}

func firstMatch(p *Page, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if el := p.Doc.Find(selector).First(); el.Length() > 0 {
			return el
		}
	}
	return nil
}

// Enrich fills the unknown fields of base from details.
func Enrich(base, details storefront.Product) storefront.Product {
	if base.Price == nil {
		base.Price = details.Price
	}
	if base.Image == nil {
		base.Image = details.Image
	}
	if base.Available == nil {
		base.Available = details.Available
	}
	if len(base.Breadcrumbs) == 0 {
		base.Breadcrumbs = details.Breadcrumbs
	}
	if (base.Title == "" || base.Title == "Product") && details.Title != "" {
		base.Title = details.Title
	}
	return base
}
