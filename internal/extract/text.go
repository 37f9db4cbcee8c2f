package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Text length bounds.
const (
	PolicyMinChars    = 100
	PolicyMaxChars    = 1000
	AboutMinChars     = 50
	AboutMaxChars     = 2000
	AboutHomeMaxChars = 1000
	AnswerMaxChars    = 500
	ReviewMaxChars    = 500
)

var invisibleTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "svg": {},
}

var chromeTags = map[string]struct{}{
	"nav": {}, "header": {}, "footer": {},
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Flatten joins the trimmed text nodes under sel with sep, skipping invisible elements
// and any element whose tag is in skip.
func Flatten(sel *goquery.Selection, sep string, skip ...string) string {
	skipped := make(map[string]struct{}, len(skip))
	for _, tag := range skip {
		skipped[tag] = struct{}{}
	}
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if _, ok := invisibleTags[n.Data]; ok {
				return
			}
			if _, ok := skipped[n.Data]; ok {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// ElementText is the space-joined, whitespace-collapsed text of sel.
func ElementText(sel *goquery.Selection) string {
	return CleanText(Flatten(sel, " "))
}

// MainText is the page text without scripts, styles and site chrome (nav, header, footer).
func MainText(p *Page) string {
	skip := make([]string, 0, len(chromeTags))
	for tag := range chromeTags {
		skip = append(skip, tag)
	}
	return CleanText(Flatten(p.Doc.Selection, " ", skip...))
}

// PolicyText returns the truncated main text when it is long enough to be a policy document.
func PolicyText(p *Page) (string, bool) {
	text := MainText(p)
	if len([]rune(text)) <= PolicyMinChars {
		return "", false
	}
	return Truncate(text, PolicyMaxChars), true
}

// AboutText returns the truncated main text of a dedicated about page.
func AboutText(p *Page) (string, bool) {
	text := MainText(p)
	if len([]rune(text)) <= AboutMinChars {
		return "", false
	}
	return Truncate(text, AboutMaxChars), true
}

// AboutSection looks for an about block on the home page itself.
func AboutSection(p *Page) (string, bool) {
	var text string
	p.Doc.Find("section, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !classContains(sel, "about") {
			return true
		}
		text = ElementText(sel)
		return false
	})
	if len([]rune(text)) <= AboutMinChars {
		return "", false
	}
	return Truncate(text, AboutHomeMaxChars), true
}
