package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/lead-scraper/internal/config"
	"github.com/jonathan/lead-scraper/internal/extract"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/pipeline"
)

// resolveConfig loads the optional config file and fills unset values from the
// environment. Flags are applied by the caller.
func resolveConfig(path string, verbose bool) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "Loaded config from: %s\n", path)
		}
	}

	env, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	return cfg.MergeWithDefaults(*env), nil
}

// buildEngine wires the fetcher, backends and optional intelligence extractor.
// The returned cleanup releases the extractor's client.
func buildEngine(ctx context.Context, cfg config.Config) (*pipeline.Engine, func(), error) {
	httpFetcher := fetch.NewHTTPFetcher(cfg.FetchTimeoutOrDefault())
	var fetcher fetch.Fetcher = httpFetcher
	if cfg.UseBrowser {
		fetcher = fetch.NewBrowserFetcher(httpFetcher, cfg.Verbose)
	}

	factory := &pipeline.DefaultFactory{
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCX:     cfg.GoogleCX,
		Politeness:   cfg.PolitenessOrDefault(),
		Verbose:      cfg.Verbose,
	}

	opts := pipeline.Options{
		Workers:        cfg.Workers,
		SearchDeadline: cfg.SearchDeadline.Std(),
		DropPhoneOnly:  cfg.DropPhoneOnly,
		Verbose:        cfg.Verbose,
	}

	cleanup := func() {}
	if cfg.GeminiAPIKey == "" {
		return pipeline.NewEngine(factory, fetcher, nil, opts), cleanup, nil
	}

	gemini, err := extract.NewGeminiExtractorFromKey(ctx, cfg.GeminiAPIKey, cfg.GeminiRPMOrDefault(), cfg.Verbose)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create intelligence extractor: %w", err)
	}
	cleanup = func() { _ = gemini.Close() }
	return pipeline.NewEngine(factory, fetcher, gemini, opts), cleanup, nil
}
