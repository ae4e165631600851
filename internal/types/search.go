package types

import (
	"github.com/go-playground/validator/v10"
)

// Platform selects which backend family serves a search.
type Platform string

const (
	// PlatformGoogle is the generic web search family (API or free engine)
	PlatformGoogle Platform = "google"
	// PlatformYellowPages is the business directory backend
	PlatformYellowPages Platform = "yellowpages"
	// PlatformLinkedIn restricts web search to LinkedIn profiles
	PlatformLinkedIn Platform = "linkedin"
	// PlatformFacebook restricts web search to Facebook pages
	PlatformFacebook Platform = "facebook"
	// PlatformInstagram restricts web search to Instagram profiles
	PlatformInstagram Platform = "instagram"
)

// IsSocial reports whether the platform is served by dork queries.
func (p Platform) IsSocial() bool {
	switch p {
	case PlatformLinkedIn, PlatformFacebook, PlatformInstagram:
		return true
	}
	return false
}

// SearchMethod selects the web search engine behind the google and social platforms.
type SearchMethod string

const (
	// MethodAPI is the Google Custom Search API
	MethodAPI SearchMethod = "api"
	// MethodDDG is the free DuckDuckGo engine
	MethodDDG SearchMethod = "ddg"
)

// SearchRequest is one search invocation.
type SearchRequest struct {
	Query        string       `json:"query" validate:"required,min=1"`
	Location     string       `json:"location" validate:"required,min=1"`
	APIKey       string       `json:"apiKey,omitempty"`
	CX           string       `json:"cx,omitempty"`
	Platform     Platform     `json:"platform,omitempty" validate:"omitempty,oneof=google yellowpages linkedin facebook instagram"`
	SearchMethod SearchMethod `json:"searchMethod,omitempty" validate:"omitempty,oneof=api ddg"`
	Page         int          `json:"page,omitempty" validate:"omitempty,min=1"`
}

// Validate validates the SearchRequest using the validator.
func (r *SearchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Normalize fills defaults for optional fields.
func (r *SearchRequest) Normalize() {
	if r.Platform == "" {
		r.Platform = PlatformGoogle
	}
	if r.SearchMethod == "" {
		r.SearchMethod = MethodAPI
	}
	if r.Page < 1 {
		r.Page = 1
	}
}

// SearchMeta describes pagination state. Only the directory backend pages.
type SearchMeta struct {
	CurrentPage        int  `json:"current_page"`
	TotalPagesEstimate int  `json:"total_pages_estimate,omitempty"`
	HasNext            bool `json:"has_next"`
}

// BackendFailure reports an adapter that aborted its call.
type BackendFailure struct {
	Backend string `json:"backend"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SearchResponse is the result of one search invocation.
type SearchResponse struct {
	Leads  []Lead           `json:"leads"`
	Meta   SearchMeta       `json:"meta"`
	Errors []BackendFailure `json:"errors,omitempty"`
}
