package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type socialHost struct {
	host    string
	network storefront.SocialNetwork
}

var socialHosts = []socialHost{
	{"instagram.com", storefront.SocialInstagram},
	{"facebook.com", storefront.SocialFacebook},
	{"tiktok.com", storefront.SocialTikTok},
	{"twitter.com", storefront.SocialTwitter},
	{"x.com", storefront.SocialTwitter},
	{"youtube.com", storefront.SocialYouTube},
	{"linkedin.com", storefront.SocialLinkedIn},
	{"pinterest.com", storefront.SocialPinterest},
}

// networkForURL maps an absolute URL to a social network by hostname.
func networkForURL(abs string) (storefront.SocialNetwork, bool) {
	u, err := url.Parse(abs)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, sh := range socialHosts {
		if host == sh.host || strings.HasSuffix(host, "."+sh.host) {
			return sh.network, true
		}
	}
	return "", false
}

// Socials collects one profile URL per network. Anchors are matched by hostname; icon images
// mentioning a network only count when their enclosing anchor points at that network.
func Socials(p *Page) storefront.Socials {
	var out storefront.Socials

	p.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		abs, ok := p.Resolve(a.AttrOr("href", ""))
		if !ok {
			return
		}
		if network, ok := networkForURL(abs); ok {
			out.Set(network, abs)
		}
	})

	p.Doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := strings.ToLower(img.AttrOr("src", ""))
		alt := strings.ToLower(img.AttrOr("alt", ""))
		anchor := img.Closest("a[href]")
		if anchor.Length() == 0 {
			return
		}
		abs, ok := p.Resolve(anchor.AttrOr("href", ""))
		if !ok {
			return
		}
		linked, ok := networkForURL(abs)
		if !ok {
			return
		}
		name := string(linked)
		if strings.Contains(src, name) || strings.Contains(alt, name) {
			out.Set(linked, abs)
		}
	})

	return out
}
