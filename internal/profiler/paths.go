package profiler

import "github.com/JakeFAU/storefront-insights/internal/storefront"

// policyPaths lists the candidate paths per policy kind, tried in order.
var policyPaths = map[storefront.PolicyKind][]string{
	storefront.PolicyPrivacy: {
		"/pages/privacy-policy", "/privacy", "/privacy-policy", "/policies/privacy-policy",
	},
	storefront.PolicyReturn: {
		"/pages/return-policy", "/pages/returns", "/return-policy", "/returns",
	},
	storefront.PolicyRefund: {
		"/pages/refund-policy", "/pages/refunds", "/refund-policy", "/refunds", "/policies/refund-policy",
	},
	storefront.PolicyTerms: {
		"/pages/terms-of-service", "/pages/terms", "/terms", "/terms-of-service", "/policies/terms-of-service",
	},
	storefront.PolicyShipping: {
		"/pages/shipping-policy", "/pages/shipping", "/shipping-policy", "/shipping", "/policies/shipping-policy",
	},
}

var faqPaths = []string{"/pages/faq", "/pages/faqs", "/faq", "/faqs", "/pages/help"}

var aboutPaths = []string{"/pages/about", "/pages/about-us", "/about", "/about-us"}

const sitemapPath = "/sitemap.xml"
