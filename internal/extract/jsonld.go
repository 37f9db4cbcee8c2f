package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type jsonObject = map[string]any

// jsonLDNodes decodes every ld+json block on the page and flattens top-level arrays, @graph and
// mainEntity members into one list. Blocks that fail to decode are skipped.
func jsonLDNodes(p *Page) []jsonObject {
	var nodes []jsonObject
	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return
		}
		nodes = append(nodes, flattenJSONLD(v)...)
	})
	return nodes
}

func flattenJSONLD(v any) []jsonObject {
	switch t := v.(type) {
	case []any:
		var out []jsonObject
		for _, item := range t {
			out = append(out, flattenJSONLD(item)...)
		}
		return out
	case jsonObject:
		out := []jsonObject{t}
		if graph, ok := t["@graph"]; ok {
			out = append(out, flattenJSONLD(graph)...)
		}
		if main, ok := t["mainEntity"]; ok && !hasType(t, "FAQPage") {
			out = append(out, flattenJSONLD(main)...)
		}
		return out
	default:
		return nil
	}
}

// hasType matches "@type" given as a string or a list of strings.
func hasType(node jsonObject, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func stringField(node jsonObject, key string) string {
	switch v := node[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case jsonObject:
		// {"@id": "..."} style references
		if id, ok := v["@id"].(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func objectField(node jsonObject, key string) jsonObject {
	switch v := node[key].(type) {
	case jsonObject:
		return v
	case []any:
		for _, item := range v {
			if obj, ok := item.(jsonObject); ok {
				return obj
			}
		}
	}
	return nil
}

func listField(node jsonObject, key string) []jsonObject {
	switch v := node[key].(type) {
	case jsonObject:
		return []jsonObject{v}
	case []any:
		out := make([]jsonObject, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(jsonObject); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

// stripHTML returns the visible text of an HTML fragment, as found in JSON-LD answers.
func stripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return ElementText(doc.Selection)
}
