package backend

import (
	"context"
	"fmt"

	"github.com/jonathan/lead-scraper/internal/types"
)

// SocialLimit caps the results of one social dork query.
const SocialLimit = 25

// siteOperators restrict a web search to a platform's profile pages.
var siteOperators = map[types.Platform]string{
	types.PlatformLinkedIn:  "site:linkedin.com/in/ OR site:linkedin.com/pub/",
	types.PlatformFacebook:  "site:facebook.com",
	types.PlatformInstagram: "site:instagram.com",
}

// Dork builds the platform-restricted query. The site operator must stay unquoted.
func Dork(platform types.Platform, query, location string) string {
	return fmt.Sprintf(`(%s) "%s" "%s" "email"`, siteOperators[platform], query, location)
}

// SocialAdapter finds profile pages of one platform through a web search Querier.
type SocialAdapter struct {
	Platform types.Platform
	Engine   Querier
	Limit    int
}

// NewSocialAdapter creates a social adapter over engine.
func NewSocialAdapter(platform types.Platform, engine Querier) (*SocialAdapter, error) {
	if _, ok := siteOperators[platform]; !ok {
		return nil, fmt.Errorf("platform %q has no social search", platform)
	}
	return &SocialAdapter{Platform: platform, Engine: engine, Limit: SocialLimit}, nil
}

// Name implements Adapter. It names the underlying engine, which is what quota and
// block failures refer to.
func (s *SocialAdapter) Name() string { return s.Engine.Name() }

// Search implements Adapter with a single dork query.
func (s *SocialAdapter) Search(ctx context.Context, query, location string, _ int) ([]types.SearchResult, error) {
	return s.Engine.Query(ctx, Dork(s.Platform, query, location), s.Limit)
}
