package visit

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/filter"
	"github.com/jonathan/lead-scraper/internal/types"
)

// Visit states recorded in PageBundle.States.
const (
	StateStart          = "start"
	StateHomeFetched    = "home_fetched"
	StateHomeFailed     = "home_failed"
	StateContactFound   = "contact_found"
	StateNoContactLink  = "no_contact_link"
	StateContactFetched = "contact_fetched"
	StateContactFailed  = "contact_failed"
	StateDone           = "done"
)

// Visitor fetches a target's home page and at most one contact page.
// A Visitor is safe for concurrent use when its Fetcher is.
type Visitor struct {
	Fetcher fetch.Fetcher
	Verbose bool
}

// NewVisitor creates a Visitor. A nil fetcher uses plain HTTP with the default timeout.
func NewVisitor(fetcher fetch.Fetcher, verbose bool) *Visitor {
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher(fetch.DefaultTimeout)
	}
	return &Visitor{Fetcher: fetcher, Verbose: verbose}
}

// Visit runs the visit for one target. It returns a *VisitError when the home page
// cannot be fetched; a failed contact page only leaves the contact fields empty.
func (v *Visitor) Visit(ctx context.Context, target types.CrawlTarget) (*types.PageBundle, error) {
	bundle := &types.PageBundle{URL: target.URL, States: []string{StateStart}}

	home, err := v.Fetcher.Fetch(ctx, target.URL)
	if err != nil {
		bundle.States = append(bundle.States, StateHomeFailed)
		if v.Verbose {
			log.Printf("[VISIT] Home page failed for %s: %v", target.URL, err)
		}
		return nil, &VisitError{URL: target.URL, Message: "home page fetch failed", Cause: err}
	}
	bundle.HomeHTML = home.HTML
	bundle.HomeText = home.Text
	bundle.States = append(bundle.States, StateHomeFetched)

	var doc *goquery.Document
	if home.HTML != "" {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(home.HTML))
	}

	contactURL := FindContactLink(doc, target.URL)
	if contactURL == "" || sameURL(contactURL, target.URL) {
		bundle.States = append(bundle.States, StateNoContactLink, StateDone)
		return bundle, nil
	}
	bundle.States = append(bundle.States, StateContactFound)

	contact, err := v.Fetcher.Fetch(ctx, contactURL)
	if err != nil {
		if v.Verbose {
			log.Printf("[VISIT] Contact page failed for %s: %v", contactURL, err)
		}
		bundle.States = append(bundle.States, StateContactFailed, StateDone)
		return bundle, nil
	}
	if contact.FinalURL != "" && !filter.SameSite(target.URL, contact.FinalURL) {
		if v.Verbose {
			log.Printf("[VISIT] Contact page %s redirected off-site to %s", contactURL, contact.FinalURL)
		}
		bundle.States = append(bundle.States, StateContactFailed, StateDone)
		return bundle, nil
	}

	bundle.ContactURL = contactURL
	bundle.ContactHTML = contact.HTML
	bundle.ContactText = contact.Text
	bundle.States = append(bundle.States, StateContactFetched, StateDone)
	return bundle, nil
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
