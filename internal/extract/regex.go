package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// emailPattern has no word boundary: glued suffixes are removed by CleanEmail.
	emailPattern = regexp.MustCompile(`(?i)[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-z]{2,10}`)
	phonePattern = regexp.MustCompile(`(\+\d{1,2}\s?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
)

// PageCandidates are the regex extractor's findings on one page.
type PageCandidates struct {
	Emails []string
	Phone  string
}

// FindEmails returns the cleaned, deduplicated addresses in text, in order of appearance.
func FindEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range emailPattern.FindAllString(text, -1) {
		out = appendEmail(out, seen, CleanEmail(match))
	}
	return out
}

// FirstPhone returns the first phone-shaped match in text, or "".
func FirstPhone(text string) string {
	return strings.TrimSpace(phonePattern.FindString(text))
}

// MailtoEmails returns the cleaned addresses of mailto anchors in doc.
func MailtoEmails(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out = appendEmail(out, seen, MailtoAddress(href))
	})
	return out
}

// MailtoAddress extracts the cleaned address of a mailto href, or "".
func MailtoAddress(href string) string {
	raw := href
	if idx := strings.Index(raw, ":"); idx >= 0 {
		raw = raw[idx+1:]
	}
	if idx := strings.Index(raw, "?"); idx >= 0 {
		raw = raw[:idx]
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	// "mailto:a@x.com,b@x.com" keeps the first recipient
	if idx := strings.Index(raw, ","); idx >= 0 {
		raw = raw[:idx]
	}
	return CleanEmail(raw)
}

// ExtractPage runs the regex extractor over one page. doc may be nil when only text
// is available. Anchors are examined before body text: mailto, then Cloudflare.
func ExtractPage(doc *goquery.Document, text string) PageCandidates {
	var emails []string
	seen := make(map[string]bool)

	for _, email := range MailtoEmails(doc) {
		emails = appendEmail(emails, seen, email)
	}
	for _, email := range CloudflareEmails(doc) {
		emails = appendEmail(emails, seen, email)
	}
	for _, email := range FindEmails(text) {
		emails = appendEmail(emails, seen, email)
	}

	phone := FirstPhone(text)
	if phone == "" && doc != nil {
		doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			phone = FirstPhone(strings.TrimPrefix(href, "tel:"))
			return phone == ""
		})
	}

	return PageCandidates{Emails: emails, Phone: phone}
}

func appendEmail(out []string, seen map[string]bool, email string) []string {
	if email == "" {
		return out
	}
	key := strings.ToLower(email)
	if seen[key] {
		return out
	}
	seen[key] = true
	return append(out, email)
}
