package extract

import (
	"strings"

	"github.com/jonathan/lead-scraper/internal/filter"
)

// GenericMailboxes are local-part prefixes of a business's general inbox.
var GenericMailboxes = []string{"info", "contact", "admin", "support", "hello", "office"}

// SelectBest chooses one address from candidates for the site at siteDomain (a host
// or URL). Precedence: the site's own domain, then a generic mailbox, then the first
// candidate. Returns "" for no candidates.
func SelectBest(candidates []string, siteDomain string) string {
	if len(candidates) == 0 {
		return ""
	}

	host := filter.Hostname(siteDomain)
	if host != "" {
		site := filter.RegistrableDomain(host)
		for _, email := range candidates {
			domain := strings.TrimPrefix(filter.EmailDomain(email), "www.")
			if domain == "" {
				continue
			}
			if domain == host || filter.RegistrableDomain(domain) == site {
				return email
			}
		}
	}

	for _, email := range candidates {
		local := strings.ToLower(email)
		if at := strings.Index(local, "@"); at >= 0 {
			local = local[:at]
		}
		for _, prefix := range GenericMailboxes {
			if strings.HasPrefix(local, prefix) {
				return email
			}
		}
	}

	return candidates[0]
}
