package visit

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/filter"
)

// ContactKeywords mark anchors that lead to a contact-style page.
var ContactKeywords = []string{"contact", "about", "team", "connect", "support", "staff"}

var skippedSchemes = []string{"mailto:", "tel:", "javascript:", "#"}

// FindContactLink returns the first anchor on the page whose text or href contains a
// contact keyword and that resolves to the same registrable domain as baseURL.
// It returns "" when no anchor qualifies.
func FindContactLink(doc *goquery.Document, baseURL string) string {
	if doc == nil {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || hasSkippedScheme(href) {
			return true
		}
		if !mentionsContact(strings.ToLower(s.Text()), strings.ToLower(href)) {
			return true
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return true
		}
		absolute := base.ResolveReference(linkURL)
		if absolute.Scheme != "http" && absolute.Scheme != "https" {
			return true
		}
		if !filter.SameSite(base.String(), absolute.String()) {
			return true
		}

		absolute.Fragment = ""
		found = absolute.String()
		return false
	})
	return found
}

func hasSkippedScheme(href string) bool {
	lower := strings.ToLower(href)
	for _, prefix := range skippedSchemes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func mentionsContact(text, href string) bool {
	for _, keyword := range ContactKeywords {
		if strings.Contains(text, keyword) || strings.Contains(href, keyword) {
			return true
		}
	}
	return false
}
