// Package pipeline orchestrates one search invocation: backend fan-out, candidate
// filtering, the bounded site-visit pool and lead aggregation.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/lead-scraper/internal/aggregate"
	"github.com/jonathan/lead-scraper/internal/backend"
	"github.com/jonathan/lead-scraper/internal/extract"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/filter"
	"github.com/jonathan/lead-scraper/internal/types"
	"github.com/jonathan/lead-scraper/internal/visit"
)

// Worker pool sizes used when Options.Workers is zero.
const (
	WorkersIntelligence = 5
	WorkersGoogle       = 15
	WorkersDefault      = 20
)

// ProgressEvent represents a progress update during a search
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when search progress occurs
type ProgressCallback func(event ProgressEvent)

// LeadCallback is called once for every lead the aggregator accepts.
type LeadCallback func(lead types.Lead)

// Observer receives streaming updates. Callbacks are never called concurrently.
type Observer struct {
	OnLead     LeadCallback
	OnProgress ProgressCallback
}

// Options holds configuration for the engine
type Options struct {
	// Workers overrides the visit pool size.
	Workers int
	// SearchDeadline bounds a whole invocation. Zero means no deadline.
	SearchDeadline time.Duration
	// DropPhoneOnly drops directory leads without an email instead of keeping
	// them with the placeholder.
	DropPhoneOnly bool
	Verbose       bool
}

// SearchError is an invocation-level failure: an invalid request or a search in
// which every backend failed and no lead was produced.
type SearchError struct {
	Message  string
	Failures []types.BackendFailure
	Cause    error
}

func (e *SearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("search failed: %s", e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Engine runs searches. It holds no per-invocation state and is safe for concurrent use.
type Engine struct {
	Factory   Factory
	Visitor   *visit.Visitor
	Extractor *extract.Pipeline
	Options   Options
}

// NewEngine creates an Engine. intel may be nil to disable intelligence extraction.
func NewEngine(factory Factory, fetcher fetch.Fetcher, intel extract.Intelligence, opts Options) *Engine {
	return &Engine{
		Factory:   factory,
		Visitor:   visit.NewVisitor(fetcher, opts.Verbose),
		Extractor: extract.NewPipeline(intel, opts.Verbose),
		Options:   opts,
	}
}

// Search runs one invocation and returns its leads in acceptance order.
func (e *Engine) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error) {
	return e.Stream(ctx, req, Observer{})
}

// Stream is Search with streaming callbacks.
func (e *Engine) Stream(ctx context.Context, req types.SearchRequest, obs Observer) (*types.SearchResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Location = strings.TrimSpace(req.Location)
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, &SearchError{Message: "invalid request", Cause: err}
	}

	plan, err := Resolve(req.Platform, req.SearchMethod)
	if err != nil {
		return nil, &SearchError{Message: "invalid request", Cause: err}
	}

	if e.Options.SearchDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Options.SearchDeadline)
		defer cancel()
	}

	run := &invocation{
		engine: e,
		req:    req,
		plan:   plan,
		obs:    obs,
	}
	run.progress("search", "backend", fmt.Sprintf("Searching %s for %q in %q", plan.Platform, req.Query, req.Location), nil)

	var resp *types.SearchResponse
	switch plan.Mode {
	case ModeDirectory:
		resp, err = run.directory(ctx)
	case ModeSocial:
		resp, err = run.social(ctx)
	default:
		resp, err = run.deep(ctx)
	}
	if err != nil {
		return nil, err
	}

	if e.Options.Verbose {
		log.Printf("[SEARCH] %s search finished with %d leads and %d backend errors", plan.Mode, len(resp.Leads), len(resp.Errors))
	}
	run.progress("complete", "search", fmt.Sprintf("Found %d leads", len(resp.Leads)), resp.Meta)
	return resp, nil
}

// invocation carries the state of one search call.
type invocation struct {
	engine *Engine
	req    types.SearchRequest
	plan   Plan
	obs    Observer
	mu     sync.Mutex
}

func (r *invocation) progress(step, category, message string, content any) {
	if r.obs.OnProgress == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs.OnProgress(ProgressEvent{Step: step, Category: category, Message: message, Content: content})
}

// add records lead and notifies the observer when it was accepted.
func (r *invocation) add(agg *aggregate.Aggregator, lead types.Lead) {
	if !agg.Add(lead) {
		return
	}
	if r.engine.Options.Verbose {
		log.Printf("[SEARCH] Lead: %s <%s> from %s", lead.Name, lead.Email, lead.Website)
	}
	if r.obs.OnLead == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs.OnLead(lead)
}

// workers picks the visit pool size.
func (r *invocation) workers() int {
	if r.engine.Options.Workers > 0 {
		return r.engine.Options.Workers
	}
	if r.engine.Extractor != nil && r.engine.Extractor.Intelligence != nil {
		return WorkersIntelligence
	}
	if r.plan.Mode != ModeDirectory && r.plan.Method == types.MethodAPI {
		return WorkersGoogle
	}
	return WorkersDefault
}

// pool runs task for every item with at most workers goroutines and waits for all
// of them. Items not yet started when ctx is done are skipped.
func pool[T any](ctx context.Context, workers int, items []T, task func(context.Context, T)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			task(gctx, item)
			return nil
		})
	}
	_ = g.Wait()
}

// searchAll runs adapters concurrently. Each adapter's results keep their order and
// adapters are concatenated in the order given. origin maps a URL to the first
// adapter that returned it.
func (r *invocation) searchAll(ctx context.Context, adapters []backend.Adapter) (results []types.SearchResult, origin map[string]string, failures []types.BackendFailure, allFailed bool) {
	outs := make([][]types.SearchResult, len(adapters))
	errs := make([]error, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		g.Go(func() error {
			outs[i], errs[i] = adapter.Search(ctx, r.req.Query, r.req.Location, r.req.Page)
			return nil
		})
	}
	_ = g.Wait()

	origin = make(map[string]string)
	allFailed = len(adapters) > 0
	for i, adapter := range adapters {
		if errs[i] != nil {
			failure := backend.AsError(adapter.Name(), errs[i]).Failure()
			failures = append(failures, failure)
			if r.engine.Options.Verbose {
				log.Printf("[SEARCH] %s failed after %d results: %v", adapter.Name(), len(outs[i]), errs[i])
			}
		} else {
			allFailed = false
		}
		for _, res := range outs[i] {
			// keyed like filter.Apply keys its targets
			key := strings.TrimSpace(res.URL)
			if _, ok := origin[key]; !ok {
				origin[key] = adapter.Name()
			}
		}
		results = append(results, outs[i]...)
	}
	return results, origin, failures, allFailed
}

func (r *invocation) deep(ctx context.Context) (*types.SearchResponse, error) {
	web, err := r.engine.Factory.WebSearch(ctx, r.plan.Method, r.req.APIKey, r.req.CX)
	if err != nil {
		return nil, r.backendSetupError(err)
	}

	results, origin, failures, allFailed := r.searchAll(ctx, []backend.Adapter{web})
	targets := filter.Apply(results)
	r.progress("filter", "backend", fmt.Sprintf("%d results, %d sites to visit", len(results), len(targets)), nil)

	agg := aggregate.New(aggregate.PolicyDropEmailless)
	pool(ctx, r.workers(), targets, func(ctx context.Context, target types.CrawlTarget) {
		candidate := r.visitAndExtract(ctx, target)
		if candidate == nil || candidate.Email == "" {
			return
		}
		r.add(agg, types.Lead{
			Name:     firstNonEmpty(candidate.Name, target.Title),
			Email:    candidate.Email,
			Phone:    candidate.Phone,
			Website:  target.URL,
			Location: firstNonEmpty(candidate.Location, r.req.Location),
			Source:   DeepSource(origin[target.URL], candidate),
			Industry: candidate.Industry,
		})
	})

	return r.finish(agg, types.SearchMeta{CurrentPage: r.req.Page}, failures, allFailed)
}

func (r *invocation) directory(ctx context.Context) (*types.SearchResponse, error) {
	dir := r.engine.Factory.Directory()
	page, err := dir.Listings(ctx, r.req.Query, r.req.Location, r.req.Page)
	if err != nil {
		failure := backend.AsError(dir.Name(), err)
		return nil, &SearchError{
			Message:  failure.Message,
			Failures: []types.BackendFailure{failure.Failure()},
			Cause:    err,
		}
	}
	r.progress("filter", "backend", fmt.Sprintf("%d listings on page %d", len(page.Listings), page.Meta.CurrentPage), nil)

	policy := aggregate.PolicyKeepPhoneOnly
	if r.engine.Options.DropPhoneOnly {
		policy = aggregate.PolicyDropEmailless
	}
	agg := aggregate.New(policy)
	pool(ctx, r.workers(), page.Listings, func(ctx context.Context, listing backend.Listing) {
		email, err := dir.ProfileEmail(ctx, listing.ProfileURL)
		if err != nil && r.engine.Options.Verbose {
			log.Printf("[SEARCH] Profile page failed for %s: %v", listing.Name, err)
		}

		phone := listing.Phone
		if email == "" && listing.Website != "" && filter.Accept(listing.Website) {
			if candidate := r.visitAndExtract(ctx, types.CrawlTarget{URL: listing.Website, Title: listing.Name}); candidate != nil {
				email = candidate.Email
				if phone == "" {
					phone = candidate.Phone
				}
			}
		}

		r.add(agg, types.Lead{
			Name:     listing.Name,
			Email:    firstNonEmpty(email, types.EmailPlaceholder),
			Phone:    phone,
			Website:  firstNonEmpty(listing.Website, types.WebsitePlaceholder),
			Location: r.req.Location,
			Source:   DirectorySource(page.Meta.CurrentPage),
		})
	})

	return r.finish(agg, page.Meta, nil, false)
}

func (r *invocation) social(ctx context.Context) (*types.SearchResponse, error) {
	web, err := r.engine.Factory.WebSearch(ctx, r.plan.Method, r.req.APIKey, r.req.CX)
	if err != nil {
		return nil, r.backendSetupError(err)
	}
	adapter, err := backend.NewSocialAdapter(r.plan.Platform, web)
	if err != nil {
		return nil, &SearchError{Message: "invalid request", Cause: err}
	}

	results, _, failures, allFailed := r.searchAll(ctx, []backend.Adapter{adapter})
	r.progress("filter", "backend", fmt.Sprintf("%d %s profiles", len(results), r.plan.Platform), nil)

	agg := aggregate.New(aggregate.PolicyDropEmailless)
	pool(ctx, r.workers(), results, func(ctx context.Context, res types.SearchResult) {
		if res.URL == "" {
			return
		}
		candidate := r.engine.Extractor.ExtractSnippet(ctx, res.Title, res.Snippet, res.URL)
		if candidate == nil || candidate.Email == "" {
			return
		}
		r.add(agg, types.Lead{
			Name:     firstNonEmpty(candidate.Name, res.Title),
			Email:    candidate.Email,
			Phone:    candidate.Phone,
			Website:  res.URL,
			Location: r.req.Location,
			Source:   SocialSource(r.plan.Platform, candidate),
			Industry: candidate.Industry,
		})
	})

	return r.finish(agg, types.SearchMeta{CurrentPage: r.req.Page}, failures, allFailed)
}

// visitAndExtract visits one site and runs the extraction pipeline. Failures are
// logged and yield nil.
func (r *invocation) visitAndExtract(ctx context.Context, target types.CrawlTarget) *types.ExtractionCandidate {
	bundle, err := r.engine.Visitor.Visit(ctx, target)
	if err != nil {
		if r.engine.Options.Verbose {
			log.Printf("[SEARCH] Skipping %s: %v", target.URL, err)
		}
		return nil
	}
	return r.engine.Extractor.Run(ctx, target, bundle)
}

func (r *invocation) finish(agg *aggregate.Aggregator, meta types.SearchMeta, failures []types.BackendFailure, allFailed bool) (*types.SearchResponse, error) {
	leads := agg.Leads()
	if allFailed && len(leads) == 0 {
		return nil, &SearchError{Message: failures[0].Message, Failures: failures}
	}
	return &types.SearchResponse{Leads: leads, Meta: meta, Errors: failures}, nil
}

// backendSetupError converts an adapter construction failure (missing credentials).
func (r *invocation) backendSetupError(err error) error {
	name := backend.GoogleName
	if r.plan.Method == types.MethodDDG {
		name = backend.DuckDuckGoName
	}
	failure := backend.AsError(name, err)
	return &SearchError{
		Message:  failure.Message,
		Failures: []types.BackendFailure{failure.Failure()},
		Cause:    err,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
