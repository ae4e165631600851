package backend

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/types"
)

const (
	// DuckDuckGoName is the display name of the free search backend.
	DuckDuckGoName = "DuckDuckGo"
	// DuckDuckGoHTML is the JavaScript-free results endpoint.
	DuckDuckGoHTML = "https://html.duckduckgo.com/html/"
	// DuckDuckGoLite is the minimal results endpoint.
	DuckDuckGoLite = "https://lite.duckduckgo.com/lite/"
)

// Permutations expands a base query into the contact-oriented variants sent to
// DuckDuckGo. Each variant surfaces a different slice of small-business sites.
func Permutations(query, location string) []string {
	base := strings.TrimSpace(query + " " + location)
	return []string{
		base + " email",
		base + ` "contact us"`,
		base + ` "@gmail.com"`,
		base + ` "info@"`,
	}
}

// DuckDuckGoAdapter scrapes DuckDuckGo's HTML endpoints. It needs no key.
type DuckDuckGoAdapter struct {
	// Endpoints are queried in order for every permutation.
	Endpoints []string
	Options   *fetch.Options
	Verbose   bool
	pacer     *Pacer
}

// NewDuckDuckGoAdapter creates the adapter with both public endpoints.
func NewDuckDuckGoAdapter(delay time.Duration, verbose bool) *DuckDuckGoAdapter {
	return &DuckDuckGoAdapter{
		Endpoints: []string{DuckDuckGoHTML, DuckDuckGoLite},
		Options:   fetch.DefaultOptions(),
		Verbose:   verbose,
		pacer:     NewPacer(delay),
	}
}

// Name implements Adapter.
func (d *DuckDuckGoAdapter) Name() string { return DuckDuckGoName }

// Search implements Adapter. Every permutation is sent to every endpoint and the
// results are merged by URL. A failed permutation is skipped; a block aborts.
func (d *DuckDuckGoAdapter) Search(ctx context.Context, query, location string, _ int) ([]types.SearchResult, error) {
	var merged []types.SearchResult
	seen := make(map[string]bool)

	for _, q := range Permutations(query, location) {
		for _, endpoint := range d.Endpoints {
			results, err := d.fetchResults(ctx, endpoint, q)
			if err != nil {
				if IsAbort(err) || ctx.Err() != nil {
					return merged, err
				}
				if d.Verbose {
					log.Printf("[BACKEND] DuckDuckGo query %q on %s skipped: %v", q, endpoint, err)
				}
				continue
			}
			merged = mergeResults(merged, seen, results)
		}
	}

	if d.Verbose {
		log.Printf("[BACKEND] DuckDuckGo found %d unique sites", len(merged))
	}
	return merged, nil
}

// Query implements Querier with a single request to the first endpoint.
func (d *DuckDuckGoAdapter) Query(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	if len(d.Endpoints) == 0 {
		return nil, &Error{Backend: DuckDuckGoName, Kind: KindNetwork, Message: "no endpoints configured"}
	}
	results, err := d.fetchResults(ctx, d.Endpoints[0], query)
	if err != nil {
		return nil, err
	}
	results = mergeResults(nil, make(map[string]bool), results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (d *DuckDuckGoAdapter) fetchResults(ctx context.Context, endpoint, query string) ([]types.SearchResult, error) {
	if err := d.pacer.Wait(ctx); err != nil {
		return nil, &Error{Backend: DuckDuckGoName, Kind: KindNetwork, Message: "search cancelled", Cause: err}
	}

	opts := *d.options()
	opts.Query = url.Values{"q": {query}}
	result, err := fetch.URL(ctx, endpoint, &opts)
	if err != nil {
		if result != nil {
			return nil, &Error{
				Backend: DuckDuckGoName,
				Kind:    statusKind(result.StatusCode),
				Message: fmt.Sprintf("HTTP status %d", result.StatusCode),
				Cause:   err,
			}
		}
		return nil, &Error{Backend: DuckDuckGoName, Kind: KindNetwork, Message: "request failed", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, &Error{Backend: DuckDuckGoName, Kind: KindParse, Message: "failed to parse results page", Cause: err}
	}
	return ParseDuckDuckGo(doc), nil
}

func (d *DuckDuckGoAdapter) options() *fetch.Options {
	if d.Options == nil {
		return fetch.DefaultOptions()
	}
	return d.Options
}

// ParseDuckDuckGo extracts results from an html or lite endpoint page.
func ParseDuckDuckGo(doc *goquery.Document) []types.SearchResult {
	var results []types.SearchResult

	// html endpoint: one .result block per hit
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a").First()
		if res, ok := resultFromAnchor(link, s.Find(".result__snippet").First().Text()); ok {
			results = append(results, res)
		}
	})

	// lite endpoint: table rows, snippet in the following row
	doc.Find("a.result-link").Each(func(_ int, s *goquery.Selection) {
		snippet := s.Closest("tr").NextAllFiltered("tr").First().Find(".result-snippet").Text()
		if res, ok := resultFromAnchor(s, snippet); ok {
			results = append(results, res)
		}
	})

	return results
}

func resultFromAnchor(a *goquery.Selection, snippet string) (types.SearchResult, bool) {
	href, ok := a.Attr("href")
	if !ok {
		return types.SearchResult{}, false
	}
	target := DecodeRedirect(href)
	if target == "" {
		return types.SearchResult{}, false
	}
	title := strings.TrimSpace(a.Text())
	if title == "" {
		title = "Unknown"
	}
	return types.SearchResult{Title: title, URL: target, Snippet: strings.TrimSpace(snippet)}, true
}

// DecodeRedirect returns the real target of a DuckDuckGo result link. Redirect links
// carry it in the uddg parameter; ad links resolve to "".
func DecodeRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || strings.HasSuffix(host, "duckduckgo.com") {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return href
}

func mergeResults(dst []types.SearchResult, seen map[string]bool, src []types.SearchResult) []types.SearchResult {
	for _, res := range src {
		if res.URL == "" || seen[res.URL] {
			continue
		}
		seen[res.URL] = true
		dst = append(dst, res)
	}
	return dst
}
