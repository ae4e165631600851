package visit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFindContactLink_FirstMatchWins(t *testing.T) {
	doc := parse(t, `
		<a href="/services">Services</a>
		<a href="/about-us">Who we are</a>
		<a href="/contact">Contact</a>`)

	assert.Equal(t, "https://acme.com/about-us", FindContactLink(doc, "https://acme.com"))
}

func TestFindContactLink_MatchesLinkText(t *testing.T) {
	doc := parse(t, `<a href="/page?id=7">Meet the Team</a>`)

	assert.Equal(t, "https://acme.com/page?id=7", FindContactLink(doc, "https://acme.com/"))
}

func TestFindContactLink_SkipsSchemesAndFragments(t *testing.T) {
	doc := parse(t, `
		<a href="mailto:info@acme.com">Contact us</a>
		<a href="tel:5125550100">Contact by phone</a>
		<a href="javascript:openContact()">Contact</a>
		<a href="#contact">Contact</a>
		<a href="/contact#form">Contact</a>`)

	assert.Equal(t, "https://acme.com/contact", FindContactLink(doc, "https://acme.com"))
}

func TestFindContactLink_CrossDomainRejected(t *testing.T) {
	doc := parse(t, `
		<a href="https://facebook.com/acme/about">About</a>
		<a href="https://acme.net/contact">Contact</a>`)

	assert.Empty(t, FindContactLink(doc, "https://acme.com"))
}

func TestFindContactLink_SubdomainAccepted(t *testing.T) {
	doc := parse(t, `
		<a href="https://widgets.io/contact">Contact</a>
		<a href="https://support.acme.com/">Help</a>`)

	assert.Equal(t, "https://support.acme.com/", FindContactLink(doc, "https://www.acme.com"))
}

func TestFindContactLink_NoMatch(t *testing.T) {
	doc := parse(t, `<a href="/menu">Menu</a>`)

	assert.Empty(t, FindContactLink(doc, "https://acme.com"))
	assert.Empty(t, FindContactLink(nil, "https://acme.com"))
	assert.Empty(t, FindContactLink(doc, "not a url"))
}

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVisit_HomeAndContact(t *testing.T) {
	server := newSite(t, map[string]string{
		"/":        `<html><body><h1>Widget Co</h1><a href="/contact">Contact</a></body></html>`,
		"/contact": `<html><body><a href="mailto:info@widgetco.com">info@widgetco.com</a></body></html>`,
	})

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: server.URL, Title: "Widget Co"})
	require.NoError(t, err)

	assert.Equal(t, server.URL, bundle.URL)
	assert.Contains(t, bundle.HomeText, "Widget Co")
	assert.Equal(t, server.URL+"/contact", bundle.ContactURL)
	assert.Contains(t, bundle.ContactHTML, "mailto:info@widgetco.com")
	assert.True(t, bundle.HasContact())
	assert.Equal(t, []string{StateStart, StateHomeFetched, StateContactFound, StateContactFetched, StateDone}, bundle.States)
	assert.LessOrEqual(t, len(bundle.States)-1, 4)
}

func TestVisit_NoContactLink(t *testing.T) {
	server := newSite(t, map[string]string{
		"/": `<html><body><p>Call us</p></body></html>`,
	})

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: server.URL})
	require.NoError(t, err)

	assert.False(t, bundle.HasContact())
	assert.Equal(t, []string{StateStart, StateHomeFetched, StateNoContactLink, StateDone}, bundle.States)
}

func TestVisit_ContactFailureDegrades(t *testing.T) {
	server := newSite(t, map[string]string{
		"/": `<html><body><p>hello@bakery.net</p><a href="/contact">Contact</a></body></html>`,
	})

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: server.URL})
	require.NoError(t, err)

	assert.Contains(t, bundle.HomeText, "hello@bakery.net")
	assert.Empty(t, bundle.ContactURL)
	assert.Equal(t, []string{StateStart, StateHomeFetched, StateContactFound, StateContactFailed, StateDone}, bundle.States)
}

func TestVisit_HomeFailureIsVisitError(t *testing.T) {
	server := newSite(t, map[string]string{})

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: server.URL})
	require.Error(t, err)
	assert.Nil(t, bundle)

	var visitErr *VisitError
	require.ErrorAs(t, err, &visitErr)
	assert.Equal(t, server.URL, visitErr.URL)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestVisit_TimeoutIsIsolated(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	visitor := NewVisitor(fetch.NewHTTPFetcher(50*time.Millisecond), false)
	_, err := visitor.Visit(context.Background(), types.CrawlTarget{URL: slow.URL})

	var visitErr *VisitError
	assert.ErrorAs(t, err, &visitErr)
}

func TestVisit_SelfLinkIsNotAContactPage(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, `<html><body><a href="/">About</a></body></html>`)
	}))
	defer server.Close()

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: server.URL + "/"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, bundle.States, StateNoContactLink)
}

func TestVisit_ContactRedirectOffSiteIsDropped(t *testing.T) {
	var foreignHits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		foreignHits.Add(1)
		_, _ = fmt.Fprint(w, `<html><body>sales@foreign-tracker.net</body></html>`)
	}))
	defer foreign.Close()
	// localhost and 127.0.0.1 are different registrable domains
	foreignURL := strings.Replace(foreign.URL, "127.0.0.1", "localhost", 1)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contact" {
			http.Redirect(w, r, foreignURL+"/", http.StatusFound)
			return
		}
		_, _ = fmt.Fprint(w, `<html><body><h1>Widget Co</h1><a href="/contact">Contact</a></body></html>`)
	}))
	defer site.Close()

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: site.URL})
	require.NoError(t, err)

	assert.Empty(t, bundle.ContactURL)
	assert.Empty(t, bundle.ContactText)
	assert.False(t, bundle.HasContact())
	assert.Equal(t, []string{StateStart, StateHomeFetched, StateContactFound, StateContactFailed, StateDone}, bundle.States)
}

func TestVisit_ContactRedirectOnSiteIsFollowed(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contact":
			http.Redirect(w, r, "/contact-us", http.StatusMovedPermanently)
		case "/contact-us":
			_, _ = fmt.Fprint(w, `<html><body>info@widgetco.com</body></html>`)
		default:
			_, _ = fmt.Fprint(w, `<html><body><a href="/contact">Contact</a></body></html>`)
		}
	}))
	defer site.Close()

	bundle, err := NewVisitor(nil, false).Visit(context.Background(), types.CrawlTarget{URL: site.URL})
	require.NoError(t, err)

	assert.Equal(t, site.URL+"/contact", bundle.ContactURL)
	assert.Contains(t, bundle.ContactText, "info@widgetco.com")
	assert.Contains(t, bundle.States, StateContactFetched)
}
