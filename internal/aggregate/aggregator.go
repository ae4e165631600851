// Package aggregate collects leads from concurrent site visits into one deduplicated list.
package aggregate

import (
	"strings"
	"sync"
	"unicode"

	"github.com/jonathan/lead-scraper/internal/types"
)

// Policy decides what happens to leads without a real email.
type Policy int

const (
	// PolicyDropEmailless drops leads whose email is empty or the placeholder.
	PolicyDropEmailless Policy = iota
	// PolicyKeepPhoneOnly keeps placeholder-email leads that carry a phone,
	// deduplicated by phone digits. Used by the directory backend.
	PolicyKeepPhoneOnly
)

// Aggregator is the single synchronization point of a search invocation.
// Leads are kept in the order Add accepted them.
type Aggregator struct {
	mu     sync.Mutex
	policy Policy
	emails map[string]bool
	phones map[string]bool
	leads  []types.Lead
}

// New creates an empty Aggregator with the given policy.
func New(policy Policy) *Aggregator {
	return &Aggregator{
		policy: policy,
		emails: make(map[string]bool),
		phones: make(map[string]bool),
	}
}

// Add records lead unless it is unusable or a duplicate. It reports whether the
// lead was accepted. First seen wins.
func (a *Aggregator) Add(lead types.Lead) bool {
	email := strings.TrimSpace(lead.Email)
	lead.Email = email

	a.mu.Lock()
	defer a.mu.Unlock()

	if email == "" || email == types.EmailPlaceholder {
		if a.policy != PolicyKeepPhoneOnly {
			return false
		}
		digits := PhoneDigits(lead.Phone)
		if digits == "" || a.phones[digits] {
			return false
		}
		a.phones[digits] = true
		lead.Email = types.EmailPlaceholder
		a.leads = append(a.leads, lead)
		return true
	}

	key := strings.ToLower(email)
	if a.emails[key] {
		return false
	}
	a.emails[key] = true
	a.leads = append(a.leads, lead)
	return true
}

// Leads returns a copy of the accepted leads in acceptance order.
func (a *Aggregator) Leads() []types.Lead {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Lead, len(a.leads))
	copy(out, a.leads)
	return out
}

// Len returns the number of accepted leads.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.leads)
}

// PhoneDigits normalizes a phone number to its digits.
func PhoneDigits(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
