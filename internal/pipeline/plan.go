package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/lead-scraper/internal/backend"
	"github.com/jonathan/lead-scraper/internal/types"
)

// Mode is the shape of a search invocation.
type Mode string

const (
	// ModeDeep searches the web and visits every candidate site
	ModeDeep Mode = "deep"
	// ModeDirectory reads one page of directory listings
	ModeDirectory Mode = "directory"
	// ModeSocial reads profile search snippets without visiting them
	ModeSocial Mode = "social"
)

// Plan is the resolved backend configuration of a request.
type Plan struct {
	Mode     Mode
	Platform types.Platform
	Method   types.SearchMethod
}

// Resolve maps a platform and search method to a Plan.
func Resolve(platform types.Platform, method types.SearchMethod) (Plan, error) {
	if method == "" {
		method = types.MethodAPI
	}
	if method != types.MethodAPI && method != types.MethodDDG {
		return Plan{}, fmt.Errorf("unknown search method %q", method)
	}

	switch {
	case platform == "" || platform == types.PlatformGoogle:
		return Plan{Mode: ModeDeep, Platform: types.PlatformGoogle, Method: method}, nil
	case platform == types.PlatformYellowPages:
		return Plan{Mode: ModeDirectory, Platform: platform}, nil
	case platform.IsSocial():
		return Plan{Mode: ModeSocial, Platform: platform, Method: method}, nil
	}
	return Plan{}, fmt.Errorf("unknown platform %q", platform)
}

// WebSearch is a general web search engine usable both as an Adapter and as the
// Querier behind social dorks.
type WebSearch interface {
	backend.Adapter
	backend.Querier
}

// Directory is the listing backend of directory mode.
type Directory interface {
	Name() string
	Listings(ctx context.Context, query, location string, page int) (*backend.DirectoryPage, error)
	ProfileEmail(ctx context.Context, profileURL string) (string, error)
}

// Factory builds the backends of one invocation.
type Factory interface {
	WebSearch(ctx context.Context, method types.SearchMethod, apiKey, cx string) (WebSearch, error)
	Directory() Directory
}

// DefaultFactory builds the production adapters. Request credentials take
// precedence over the configured ones.
type DefaultFactory struct {
	GoogleAPIKey string
	GoogleCX     string
	Politeness   time.Duration
	Verbose      bool
}

// WebSearch implements Factory.
func (f *DefaultFactory) WebSearch(ctx context.Context, method types.SearchMethod, apiKey, cx string) (WebSearch, error) {
	if method == types.MethodDDG {
		return backend.NewDuckDuckGoAdapter(f.Politeness, f.Verbose), nil
	}

	if apiKey == "" {
		apiKey = f.GoogleAPIKey
	}
	if cx == "" {
		cx = f.GoogleCX
	}
	adapter, err := backend.NewGoogleAdapter(ctx, apiKey, cx, f.Politeness)
	if err != nil {
		return nil, err
	}
	adapter.Verbose = f.Verbose
	return adapter, nil
}

// Directory implements Factory.
func (f *DefaultFactory) Directory() Directory {
	return backend.NewDirectoryAdapter(f.Politeness, f.Verbose)
}
