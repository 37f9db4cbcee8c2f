package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

var (
	emailRE      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRE      = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	phoneCharsRE = regexp.MustCompile(`[^\d+\-()\s.]`)
)

var emailDenylist = []string{"example.com", "test.com", "domain.com"}

// ContactsFromText pulls email addresses and phone numbers out of flattened page text.
func ContactsFromText(text string) storefront.Contacts {
	emails := map[string]struct{}{}
	for _, m := range emailRE.FindAllString(text, -1) {
		if deniedEmail(m) {
			continue
		}
		emails[m] = struct{}{}
	}

	phones := map[string]struct{}{}
	for _, m := range phoneRE.FindAllString(text, -1) {
		clean := CleanText(phoneCharsRE.ReplaceAllString(m, ""))
		digits := 0
		for _, r := range clean {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 7 && digits <= 15 {
			phones[clean] = struct{}{}
		}
	}

	return storefront.Contacts{Emails: sortedKeys(emails), Phones: sortedKeys(phones)}
}

// Contacts extracts contacts from a page's visible text.
func Contacts(p *Page) storefront.Contacts {
	return ContactsFromText(Flatten(p.Doc.Selection, " "))
}

// MergeContacts unions contact sets.
func MergeContacts(sets ...storefront.Contacts) storefront.Contacts {
	emails := map[string]struct{}{}
	phones := map[string]struct{}{}
	for _, s := range sets {
		for _, e := range s.Emails {
			emails[e] = struct{}{}
		}
		for _, ph := range s.Phones {
			phones[ph] = struct{}{}
		}
	}
	return storefront.Contacts{Emails: sortedKeys(emails), Phones: sortedKeys(phones)}
}

func deniedEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, d := range emailDenylist {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
