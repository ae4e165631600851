package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/lead-scraper/internal/types"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// GoogleName is the display name of the Custom Search backend.
	GoogleName = "Google"
	// GoogleMaxPages is the Custom Search API's hard paging limit (100 results).
	GoogleMaxPages = 10
	googlePageSize = 10
)

var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
	"quotaExceeded":         true,
}

// GoogleAdapter searches with the Google Custom Search JSON API.
type GoogleAdapter struct {
	svc     *customsearch.Service
	cx      string
	pacer   *Pacer
	Verbose bool
}

// NewGoogleAdapter creates the adapter. A missing key or engine id is an auth error.
// opts are appended after the API key (tests pass option.WithEndpoint).
func NewGoogleAdapter(ctx context.Context, apiKey, cx string, delay time.Duration, opts ...option.ClientOption) (*GoogleAdapter, error) {
	if apiKey == "" || cx == "" {
		return nil, &Error{Backend: GoogleName, Kind: KindAuth, Message: "API key and search engine id (cx) are required"}
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &Error{Backend: GoogleName, Kind: KindAuth, Message: "failed to create customsearch service", Cause: err}
	}
	return &GoogleAdapter{svc: svc, cx: cx, pacer: NewPacer(delay)}, nil
}

// Name implements Adapter.
func (g *GoogleAdapter) Name() string { return GoogleName }

// Search implements Adapter. The API has no notion of the directory page cursor, so
// page is ignored and up to GoogleMaxPages pages are read.
func (g *GoogleAdapter) Search(ctx context.Context, query, location string, _ int) ([]types.SearchResult, error) {
	return g.Query(ctx, strings.TrimSpace(query+" "+location), GoogleMaxPages*googlePageSize)
}

// Query implements Querier. Pages are fetched with start = p*10+1 until a page has
// no items, limit is reached, or the API aborts the call. Results gathered before an
// abort are returned with the error.
func (g *GoogleAdapter) Query(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	if limit <= 0 || limit > GoogleMaxPages*googlePageSize {
		limit = GoogleMaxPages * googlePageSize
	}

	var results []types.SearchResult
	for p := 0; p < GoogleMaxPages && len(results) < limit; p++ {
		if err := g.pacer.Wait(ctx); err != nil {
			return results, &Error{Backend: GoogleName, Kind: KindNetwork, Message: "search cancelled", Cause: err}
		}

		start := int64(p*googlePageSize + 1)
		if g.Verbose {
			log.Printf("[BACKEND] Google page %d (start=%d): %s", p+1, start, query)
		}
		resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(googlePageSize).Start(start).Context(ctx).Do()
		if err != nil {
			return results, classifyGoogleError(err)
		}
		if len(resp.Items) == 0 {
			break
		}
		for _, item := range resp.Items {
			if item.Link == "" {
				continue
			}
			title := item.Title
			if title == "" {
				title = "Unknown"
			}
			results = append(results, types.SearchResult{Title: title, URL: item.Link, Snippet: item.Snippet})
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// classifyGoogleError maps API errors onto the backend taxonomy.
func classifyGoogleError(err error) *Error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &Error{Backend: GoogleName, Kind: KindNetwork, Message: "request failed", Cause: err}
	}

	reasons := make([]string, 0, len(apiErr.Errors))
	quota := false
	for _, item := range apiErr.Errors {
		reasons = append(reasons, item.Reason)
		if quotaReasons[item.Reason] {
			quota = true
		}
	}
	message := fmt.Sprintf("HTTP %d", apiErr.Code)
	if apiErr.Message != "" {
		message += ": " + apiErr.Message
	}
	if len(reasons) > 0 {
		message += " (" + strings.Join(reasons, ", ") + ")"
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests, quota:
		return &Error{Backend: GoogleName, Kind: KindQuota, Message: message, Cause: err}
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
		return &Error{Backend: GoogleName, Kind: KindAuth, Message: message, Cause: err}
	case apiErr.Code == http.StatusBadRequest && invalidKey(apiErr, reasons):
		return &Error{Backend: GoogleName, Kind: KindAuth, Message: message, Cause: err}
	}
	return &Error{Backend: GoogleName, Kind: KindNetwork, Message: message, Cause: err}
}

// invalidKey recognizes the 400 the API returns for a bad key.
func invalidKey(apiErr *googleapi.Error, reasons []string) bool {
	for _, r := range reasons {
		if r == "keyInvalid" {
			return true
		}
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "api key not valid")
}
