// Package fetch - browser.go provides headless browser rendering for script-heavy business sites.
package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider an HTTP fetch useful.
// Shorter pages are re-rendered in the browser when a BrowserFetcher is in use.
const MinContentLength = 200

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered client-side.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// RenderFunc renders a URL and returns its HTML.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error)

// BrowserFetcher fetches over HTTP and falls back to a headless render when the
// page text is too short to hold contact details.
type BrowserFetcher struct {
	HTTP *HTTPFetcher
	// Timeout bounds the whole fetch: the HTTP attempt and the render share it.
	Timeout time.Duration
	Verbose bool
	// Render defaults to WithBrowser.
	Render RenderFunc
}

// NewBrowserFetcher creates a BrowserFetcher around base.
func NewBrowserFetcher(base *HTTPFetcher, verbose bool) *BrowserFetcher {
	if base == nil {
		base = NewHTTPFetcher(DefaultTimeout)
	}
	timeout := DefaultTimeout
	if base.Options != nil && base.Options.Timeout > 0 {
		timeout = base.Options.Timeout
	}
	return &BrowserFetcher{HTTP: base, Timeout: timeout, Verbose: verbose, Render: WithBrowser}
}

// Fetch returns the HTTP result unless its text is short, in which case the
// rendered page replaces it. A failed or timed out render keeps the HTTP result.
func (f *BrowserFetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := f.HTTP.Fetch(ctx, urlStr)
	if err != nil || !ShouldUseBrowser(result.Text) {
		return result, err
	}

	deadline, _ := ctx.Deadline()
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return result, nil
	}

	render := f.Render
	if render == nil {
		render = WithBrowser
	}

	html, renderErr := render(ctx, urlStr, remaining, f.Verbose)
	if renderErr != nil {
		if f.Verbose {
			log.Printf("[BROWSER] Falling back to HTTP content for %s: %v", urlStr, renderErr)
		}
		return result, nil
	}

	text, textErr := ExtractText(html)
	if textErr != nil || len(text) <= len(result.Text) {
		return result, nil
	}
	result.HTML = html
	result.Text = text
	return result, nil
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error) {
	if verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// footer widgets often inject the contact block late
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	if verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	return html, nil
}
