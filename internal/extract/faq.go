package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// FAQ limits.
const (
	FAQPageMax     = 15
	FAQMergedMax   = 20
	questionMaxLen = 200
	toggleMaxLen   = 250
)

var faqStrategies = []Strategy[storefront.FAQ]{
	{Name: "details", Run: faqsFromDetails},
	{Name: "containers", Run: faqsFromContainers},
	{Name: "toggles", Run: faqsFromToggles},
	{Name: "json-ld", Run: faqsFromJSONLD},
	{Name: "definition-lists", Run: faqsFromDefinitionLists},
	{Name: "text", Run: faqsFromText},
}

// FAQs unions every FAQ strategy over the page, then truncates, deduplicates and caps the result.
func FAQs(p *Page) []storefront.FAQ {
	return MergeFAQs(FAQPageMax, Union(p, faqStrategies))
}

// MergeFAQs concatenates sets in order, deduplicating on the question prefix key. Keys of five
// characters or fewer are dropped.
func MergeFAQs(limit int, sets ...[]storefront.FAQ) []storefront.FAQ {
	var all []storefront.FAQ
	for _, set := range sets {
		for _, f := range set {
			f.Question = CleanText(f.Question)
			f.Answer = Truncate(CleanText(f.Answer), AnswerMaxChars)
			all = append(all, f)
		}
	}
	out := dedupe(all, func(f storefront.FAQ) string {
		key := f.DedupKey()
		if len([]rune(key)) <= 5 {
			return ""
		}
		return key
	})
	return capped(out, limit)
}

func faqsFromDetails(p *Page) []storefront.FAQ {
	var out []storefront.FAQ
	p.Doc.Find("details").Each(func(_ int, d *goquery.Selection) {
		summary := d.Find("summary").First()
		if summary.Length() == 0 {
			return
		}
		question := ElementText(summary)
		answer := CleanText(Flatten(d, " ", "summary"))
		if question == "" || len([]rune(answer)) <= 10 {
			return
		}
		out = append(out, storefront.FAQ{Question: question, Answer: answer, URL: p.String()})
	})
	return out
}

func isFAQContainer(s *goquery.Selection) bool {
	return classContains(s, "faq", "accordion", "question") || idContains(s, "faq")
}

func faqsFromContainers(p *Page) []storefront.FAQ {
	var out []storefront.FAQ
	p.Doc.Find("div, section, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isFAQContainer(s)
	}).Each(func(_ int, wrapper *goquery.Selection) {
		wrapper.Find("h1, h2, h3, h4, h5, h6, strong, b").Each(func(_ int, q *goquery.Selection) {
			question := ElementText(q)
			if len([]rune(question)) < 5 {
				return
			}
			answerEl := q.NextAllFiltered("p, div, span").First()
			if answerEl.Length() == 0 {
				answerEl = q.Parent().NextAllFiltered("p, div").First()
			}
			if answerEl.Length() == 0 {
				return
			}
			answer := ElementText(answerEl)
			n := len([]rune(answer))
			if n <= 10 || n >= 1000 {
				return
			}
			out = append(out, storefront.FAQ{Question: question, Answer: answer, URL: p.String()})
		})
	})
	return out
}

func faqsFromToggles(p *Page) []storefront.FAQ {
	var out []storefront.FAQ
	p.Doc.Find("button, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classContains(s, "faq", "accordion", "toggle")
	}).Each(func(_ int, button *goquery.Selection) {
		question := ElementText(button)
		n := len([]rune(question))
		if n < 5 || n > toggleMaxLen {
			return
		}
		target := button.AttrOr("aria-controls", "")
		if target == "" {
			target = button.AttrOr("data-target", "")
		}
		target = strings.TrimPrefix(strings.TrimSpace(target), "#")
		if target == "" {
			return
		}
		panel := p.Doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("id", "") == target
		}).First()
		if panel.Length() == 0 {
			return
		}
		answer := ElementText(panel)
		if len([]rune(answer)) <= 10 {
			return
		}
		out = append(out, storefront.FAQ{Question: question, Answer: answer, URL: p.String()})
	})
	return out
}

func faqsFromJSONLD(p *Page) []storefront.FAQ {
	var out []storefront.FAQ
	for _, node := range jsonLDNodes(p) {
		if !hasType(node, "FAQPage") {
			continue
		}
		for _, item := range listField(node, "mainEntity") {
			if !hasType(item, "Question") {
				continue
			}
			question := stripHTML(stringField(item, "name"))
			accepted := objectField(item, "acceptedAnswer")
			if accepted == nil {
				continue
			}
			answer := stripHTML(stringField(accepted, "text"))
			if question == "" || answer == "" {
				continue
			}
			out = append(out, storefront.FAQ{Question: question, Answer: answer, URL: p.String()})
		}
	}
	return out
}

func faqsFromDefinitionLists(p *Page) []storefront.FAQ {
	var out []storefront.FAQ
	p.Doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		question := ElementText(dt)
		dd := dt.NextAllFiltered("dd").First()
		if question == "" || dd.Length() == 0 {
			return
		}
		answer := ElementText(dd)
		if len([]rune(answer)) <= 10 {
			return
		}
		out = append(out, storefront.FAQ{Question: question, Answer: answer, URL: p.String()})
	})
	return out
}

var (
	qLineRE        = regexp.MustCompile(`^(?:Q|Question)\s*[:.]\s*(.+)$`)
	aLineRE        = regexp.MustCompile(`^(?:A|Answer)\s*[:.]\s*(.+)$`)
	numberedLineRE = regexp.MustCompile(`^\d+\.\s*(.+\?)\s*$`)
	numberedAnyRE  = regexp.MustCompile(`^\d+\.\s`)
)

// qaLookahead bounds how many lines may separate a question from its answer.
const qaLookahead = 3

// faqsFromText is the last-resort scan over the page's text lines. Questions must start a line with
// a Q:/Question: label (answered by an A:/Answer: line shortly after) or be a numbered line ending in
// a question mark (answered by the lines up to the next numbered item).
func faqsFromText(p *Page) []storefront.FAQ {
	var lines []string
	for _, l := range strings.Split(Flatten(p.Doc.Selection, "\n"), "\n") {
		if l = CleanText(l); l != "" {
			lines = append(lines, l)
		}
	}
	return faqsFromLines(lines, p.String())
}

func faqsFromLines(lines []string, source string) []storefront.FAQ {
	var out []storefront.FAQ
	add := func(q, a string) {
		q = Truncate(strings.TrimSpace(q), questionMaxLen)
		a = strings.TrimSpace(a)
		if len([]rune(q)) > 5 && len([]rune(a)) > 10 {
			out = append(out, storefront.FAQ{Question: q, Answer: a, URL: source})
		}
	}

	for i := 0; i < len(lines); i++ {
		if m := qLineRE.FindStringSubmatch(lines[i]); m != nil {
			for j := i + 1; j < len(lines) && j <= i+qaLookahead; j++ {
				if a := aLineRE.FindStringSubmatch(lines[j]); a != nil {
					add(m[1], a[1])
					i = j
					break
				}
			}
			continue
		}
		if m := numberedLineRE.FindStringSubmatch(lines[i]); m != nil {
			var answer []string
			j := i + 1
			for ; j < len(lines) && j <= i+qaLookahead && !numberedAnyRE.MatchString(lines[j]); j++ {
				answer = append(answer, lines[j])
			}
			if len(answer) > 0 {
				add(m[1], strings.Join(answer, " "))
				i = j - 1
			}
		}
	}
	return out
}
