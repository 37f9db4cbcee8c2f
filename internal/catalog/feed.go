// Package catalog reads a storefront's public product feed (/products.json).
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

type feed struct {
	Products []json.RawMessage `json:"products"`
}

type feedProduct struct {
	ID       flexString    `json:"id"`
	Title    string        `json:"title"`
	Handle   string        `json:"handle"`
	Variants []feedVariant `json:"variants"`
	Images   []feedImage   `json:"images"`
}

type feedVariant struct {
	Price     flexString `json:"price"`
	Available *bool      `json:"available"`
}

type feedImage struct {
	Src string `json:"src"`
}

// flexString accepts a JSON string or number. null and absent values decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// DecodeResult is the outcome of decoding one feed page.
type DecodeResult struct {
	Products []storefront.Product
	Rejected int
}

// Decode parses a products.json body. Each entry is decoded on its own, so a malformed entry or
// one missing a title or handle is counted as rejected without affecting its neighbours.
func Decode(body []byte, origin string) (DecodeResult, error) {
	var f feed
	if err := json.Unmarshal(body, &f); err != nil {
		return DecodeResult{}, fmt.Errorf("decode product feed: %w", err)
	}
	res := DecodeResult{Products: make([]storefront.Product, 0, len(f.Products))}
	for _, raw := range f.Products {
		var entry feedProduct
		if err := json.Unmarshal(raw, &entry); err != nil {
			res.Rejected++
			continue
		}
		prod, ok := entry.toProduct(origin)
		if !ok {
			res.Rejected++
			continue
		}
		res.Products = append(res.Products, prod)
	}
	return res, nil
}

func (e feedProduct) toProduct(origin string) (storefront.Product, bool) {
	title := strings.TrimSpace(e.Title)
	handle := strings.TrimSpace(e.Handle)
	if title == "" || handle == "" {
		return storefront.Product{}, false
	}
	prod := storefront.Product{
		Title: title,
		URL:   storefront.Ptr(fetch.JoinPath(origin, "/products/"+handle)),
	}
	if e.ID != "" {
		prod.ID = storefront.Ptr(string(e.ID))
	}
	if len(e.Variants) > 0 {
		prod.Price = FormatPrice(string(e.Variants[0].Price))
		available := false
		for _, v := range e.Variants {
			if v.Available != nil && *v.Available {
				available = true
				break
			}
		}
		prod.Available = &available
	}
	if len(e.Images) > 0 && e.Images[0].Src != "" {
		prod.Image = storefront.Ptr(e.Images[0].Src)
	}
	return prod, true
}

// FormatPrice renders numeric prices as "$12.50" and passes other non-empty values through.
func FormatPrice(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return storefront.Ptr(fmt.Sprintf("$%.2f", v))
	}
	return &raw
}
