package extract

import (
	"bytes"

	"github.com/antchfx/xmlquery"
)

// IsSitemap reports whether body is an XML sitemap or sitemap index. Bodies that are not
// well-formed XML fall back to a plain marker check.
func IsSitemap(body []byte) bool {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return bytes.Contains(body, []byte("<urlset"))
	}
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		return n.Data == "urlset" || n.Data == "sitemapindex"
	}
	return false
}
