// Package types provides type definitions for structured data used throughout the lead-scraper system.
package types

// EmailPlaceholder is the directory backend's stand-in for a lead without an email.
// It is a format placeholder, not a real address.
const EmailPlaceholder = "N/A"

// WebsitePlaceholder marks a directory listing without an external website.
const WebsitePlaceholder = "N/A"

// SearchResult is one raw listing returned by a backend adapter.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// CrawlTarget is a filtered search result handed to exactly one site visit.
type CrawlTarget struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PageBundle is the site visitor's output for one target.
// ContactURL, when set, shares the registrable domain of the target URL.
type PageBundle struct {
	URL         string   `json:"url"`
	HomeHTML    string   `json:"-"`
	HomeText    string   `json:"home_text"`
	ContactURL  string   `json:"contact_url,omitempty"`
	ContactHTML string   `json:"-"`
	ContactText string   `json:"contact_text,omitempty"`
	States      []string `json:"states,omitempty"`
}

// HasContact reports whether a contact page was fetched.
func (b *PageBundle) HasContact() bool {
	return b != nil && b.ContactURL != "" && b.ContactText != ""
}

// Strategy names the extractor that produced a candidate.
type Strategy string

const (
	// StrategyRegex is the deterministic pattern extractor
	StrategyRegex Strategy = "regex"
	// StrategyIntelligence is the external LLM extractor
	StrategyIntelligence Strategy = "intelligence"
)

// ExtractionCandidate is the best-guess contact record for one site.
type ExtractionCandidate struct {
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Name     string   `json:"name,omitempty"`
	Location string   `json:"location,omitempty"`
	Industry string   `json:"industry,omitempty"`
	Strategy Strategy `json:"strategy"`
}

// HasSignal reports whether the candidate carries an email or a phone.
func (c *ExtractionCandidate) HasSignal() bool {
	return c != nil && (c.Email != "" || c.Phone != "")
}

// BusinessInfo is the record returned by the intelligence extractor.
// Pointer fields distinguish JSON null from empty strings.
type BusinessInfo struct {
	BusinessName *string `json:"business_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Location     *string `json:"location"`
	Industry     *string `json:"industry"`
}

// Usable reports whether the record carries an email or a phone.
func (b *BusinessInfo) Usable() bool {
	return b != nil && (Deref(b.Email) != "" || Deref(b.Phone) != "")
}

// Lead is the final output unit of a search.
type Lead struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Phone    string `json:"Phone,omitempty"`
	Website  string `json:"Website"`
	Location string `json:"Location"`
	Source   string `json:"Source"`
	Industry string `json:"Industry,omitempty"`
}

// Deref returns the value of s or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
