// Package platform classifies a storefront's commerce platform from its home page.
package platform

import (
	"bytes"
	"net/http"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type signature struct {
	platform storefront.Platform
	headers  []string
	markers  [][]byte
}

// signatures is evaluated in order; the first platform with any matching token wins.
var signatures = []signature{
	{
		platform: storefront.PlatformShopify,
		headers:  []string{"X-Shopify-Stage", "X-Shopify-Shop-Api-Call-Limit", "X-Shopify-Request-Id"},
		markers: [][]byte{
			[]byte("cdn.shopify.com"),
			[]byte("Shopify.theme"),
			[]byte("shopify-section"),
			[]byte("shopify_section"),
			[]byte("window.Shopify"),
			[]byte("Shopify.money_format"),
		},
	},
	{
		platform: storefront.PlatformWooCommerce,
		markers: [][]byte{
			[]byte("wp-content/plugins/woocommerce"),
			[]byte("woocommerce"),
			[]byte("wc-block-"),
		},
	},
	{
		platform: storefront.PlatformMagento,
		markers: [][]byte{
			[]byte("Magento"),
			[]byte("mage/cookies"),
			[]byte("Mage.Cookies"),
		},
	},
	{
		platform: storefront.PlatformBigCommerce,
		markers: [][]byte{
			[]byte("bigcommerce.com"),
			[]byte("bc-sf-filter"),
			[]byte("BCData"),
		},
	},
	{
		platform: storefront.PlatformSquarespace,
		markers: [][]byte{
			[]byte("squarespace.com"),
			[]byte("Static.SQUARESPACE_CONTEXT"),
		},
	},
	{
		platform: storefront.PlatformWix,
		headers:  []string{"X-Wix-Request-Id"},
		markers: [][]byte{
			[]byte("static.wixstatic.com"),
			[]byte("wix.com"),
			[]byte("_wixCssImports"),
		},
	},
	{
		platform: storefront.PlatformPrestaShop,
		markers: [][]byte{
			[]byte("prestashop"),
			[]byte("PrestaShop"),
		},
	},
	{
		platform: storefront.PlatformOpenCart,
		markers: [][]byte{
			[]byte("opencart"),
			[]byte("catalog/view/theme"),
		},
	},
}

// Detect checks header signatures first, then markup tokens. Header names match case-insensitively,
// markup tokens case-sensitively.
func Detect(body []byte, headers http.Header) storefront.Platform {
	if p, ok := byHeaders(headers); ok {
		return p
	}
	for _, sig := range signatures {
		for _, marker := range sig.markers {
			if bytes.Contains(body, marker) {
				return sig.platform
			}
		}
	}
	return storefront.PlatformUnknown
}

func byHeaders(headers http.Header) (storefront.Platform, bool) {
	if len(headers) == 0 {
		return "", false
	}
	// http.Header keys are canonicalized by the transport but callers may build maps by hand.
	present := make(map[string]struct{}, len(headers))
	for name := range headers {
		present[http.CanonicalHeaderKey(name)] = struct{}{}
	}
	for _, sig := range signatures {
		for _, name := range sig.headers {
			if _, ok := present[http.CanonicalHeaderKey(name)]; ok {
				return sig.platform, true
			}
		}
	}
	return "", false
}

// Matches reports whether detected agrees with expected. An empty expectation always matches.
func Matches(detected storefront.Platform, expected string) bool {
	if expected == "" {
		return true
	}
	return string(detected) == expected
}
