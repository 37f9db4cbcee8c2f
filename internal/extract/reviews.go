package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// ReviewsMax caps the reviews kept per page.
const ReviewsMax = 10

var reviewSelectors = []string{
	".review", ".reviews", ".testimonial", ".testimonials", "[data-review]", ".customer-review",
}

var (
	ratingTextRE = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:out of|/|stars?)`)
	starClassRE  = regexp.MustCompile(`(?i)star`)
	filledRE     = regexp.MustCompile(`(?i)filled|full`)
)

// Reviews collects customer reviews and testimonials, deduplicated by text.
func Reviews(p *Page) []storefront.Review {
	var out []storefront.Review
	for _, selector := range reviewSelectors {
		p.Doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := ElementText(el)
			if len([]rune(text)) <= 20 {
				return true
			}
			out = append(out, storefront.Review{
				Author: reviewAuthor(el),
				Rating: rating(el, text),
				Text:   Truncate(text, ReviewMaxChars),
			})
			return len(out) < ReviewsMax
		})
		if len(out) >= ReviewsMax {
			break
		}
	}
	return capped(dedupe(out, func(r storefront.Review) string { return r.Text }), ReviewsMax)
}

func reviewAuthor(el *goquery.Selection) *string {
	author := ElementText(el.Find(`.author, .review-author, [itemprop="author"], cite`).First())
	if author == "" {
		return nil
	}
	return &author
}

// rating reads filled star icons first, then a "4.5 out of 5" style phrase.
func rating(el *goquery.Selection, text string) *float64 {
	stars := el.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return starClassRE.MatchString(s.AttrOr("class", ""))
	})
	if stars.Length() > 0 {
		filled := stars.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return filledRE.MatchString(s.AttrOr("class", ""))
		}).Length()
		v := float64(filled)
		return &v
	}
	if m := ratingTextRE.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64); err == nil {
			return &v
		}
	}
	return nil
}
