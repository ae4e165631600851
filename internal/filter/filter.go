// Package filter removes junk, non-HTML and duplicate candidates before any site is visited.
package filter

import (
	"net/url"
	"path"
	"strings"

	"github.com/jonathan/lead-scraper/internal/types"
)

// JunkDomains are hosts that never yield a useful business contact: search engines,
// social networks, directories, platform vendors. Entries starting with "." match as
// pure suffixes.
var JunkDomains = map[string]bool{
	"duckduckgo.com":           true,
	"google.com":               true,
	"accounts.google.com":      true,
	"microsoft.com":            true,
	"outlook.office.com":       true,
	"yahoo.com":                true,
	"yandex.com":               true,
	"facebook.com":             true,
	"twitter.com":              true,
	"instagram.com":            true,
	"linkedin.com":             true,
	"youtube.com":              true,
	"amazon.com":               true,
	"signin.aws.amazon.com":    true,
	"ebay.com":                 true,
	"w3.org":                   true,
	"schema.org":               true,
	"example.com":              true,
	"wix.com":                  true,
	"wixpress.com":             true,
	"sentry.io":                true,
	"cloudflare.com":           true,
	"github.com":               true,
	"wordpress.org":            true,
	"gravatar.com":             true,
	"healthjobsnationwide.com": true,
	"registertovote.ca.gov":    true,
	"caring.com":               true,
	"yelp.com":                 true,
	"yellowpages.com":          true,
	"superpages.com":           true,
	"mapquest.com":             true,
	"ussearch.com":             true,
	"webfecto.com":             true,
	"cybo.com":                 true,
	"findbusinessaddress.com":  true,
	".gov":                     true,
}

// DisallowedExtensions are URL path suffixes that are not HTML pages.
var DisallowedExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".png", ".jpg", ".jpeg",
	".gif", ".xml", ".zip", ".css", ".js", ".mp4",
}

// IsJunkDomain reports whether host (or an email domain) is in the junk set,
// either exactly or as a subdomain of an entry.
func IsJunkDomain(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	if JunkDomains[host] {
		return true
	}
	for entry := range JunkDomains {
		if strings.HasPrefix(entry, ".") {
			if strings.HasSuffix(host, entry) {
				return true
			}
			continue
		}
		if strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// HasDisallowedExtension reports whether the URL points at a non-HTML resource.
func HasDisallowedExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if parsed, err := url.Parse(lower); err == nil {
		lower = parsed.Path
	}
	ext := path.Ext(lower)
	if ext == "" {
		return false
	}
	for _, disallowed := range DisallowedExtensions {
		if ext == disallowed {
			return true
		}
	}
	return false
}

// Accept reports whether a single URL passes the junk and extension checks.
func Accept(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if IsJunkDomain(parsed.Hostname()) {
		return false
	}
	return !HasDisallowedExtension(rawURL)
}

// Apply turns search results into crawl targets, dropping junk hosts, disallowed
// extensions and URLs already accepted earlier in the batch. Order is preserved.
func Apply(results []types.SearchResult) []types.CrawlTarget {
	seen := make(map[string]bool, len(results))
	targets := make([]types.CrawlTarget, 0, len(results))

	for _, res := range results {
		link := strings.TrimSpace(res.URL)
		if link == "" || seen[link] {
			continue
		}
		if !Accept(link) {
			continue
		}
		seen[link] = true

		title := res.Title
		if title == "" {
			title = "Unknown"
		}
		targets = append(targets, types.CrawlTarget{URL: link, Title: title})
	}

	return targets
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
