package extract

import (
	"regexp"
	"strings"

	"github.com/jonathan/lead-scraper/internal/filter"
)

// GarbageSuffixes are words page layouts glue onto the end of an address
// ("info@acme.comTel", "info@acme.comWebsite").
var GarbageSuffixes = []string{
	"None", "Website", ".Website", "Contact", "Email", "null", "undefined",
	"Tel", "Phone", "Fax", "Hours", "Home", "Services", "About", "Menu",
}

// imageExtensions mark sprite names such as "logo@2x.png" that look like addresses.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// directoryJunkMailboxes are local-part fragments of directory boilerplate addresses.
var directoryJunkMailboxes = []string{
	"dmca", "privacy", "accessibility", "abuse", "noreply", "webmaster", "admin",
	"help", "jobs", "careers", "media", "press", "news", "support",
}

// upperTail matches an uppercase-led run glued to a lowercase TLD.
var upperTail = regexp.MustCompile(`(\.[a-z]+)([A-Z].*)$`)

// CleanEmail normalizes a raw match into an address, or returns "" when the match
// is not a usable email. CleanEmail(CleanEmail(x)) == CleanEmail(x).
func CleanEmail(raw string) string {
	email := strings.TrimSpace(raw)
	email = strings.TrimLeft(email, "/.:")
	email = strings.TrimRight(email, ".,;:|")

	for {
		before := email
		for _, suffix := range GarbageSuffixes {
			email = strings.TrimSuffix(email, suffix)
		}
		if at := strings.LastIndex(email, "@"); at >= 0 {
			domain := email[at+1:]
			if m := upperTail.FindStringSubmatchIndex(domain); m != nil {
				email = email[:at+1+m[4]]
			}
		}
		email = strings.TrimRight(email, ".,;:|")
		if email == before {
			break
		}
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	domain := strings.ToLower(email[at+1:])
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") {
		return ""
	}
	if filter.IsJunkDomain(domain) {
		return ""
	}
	lower := strings.ToLower(email)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return ""
		}
	}
	return email
}

// IsDirectoryJunk reports whether an address is directory boilerplate
// (privacy@, noreply@, careers@ and similar).
func IsDirectoryJunk(email string) bool {
	lower := strings.ToLower(email)
	for _, junk := range directoryJunkMailboxes {
		if strings.Contains(lower, junk) {
			return true
		}
	}
	return false
}
