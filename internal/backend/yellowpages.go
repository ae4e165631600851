package backend

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/extract"
	"github.com/jonathan/lead-scraper/internal/fetch"
	"github.com/jonathan/lead-scraper/internal/types"
)

const (
	// YellowPagesName is the display name of the directory backend.
	YellowPagesName = "YellowPages"
	// YellowPagesBaseURL is the public directory site.
	YellowPagesBaseURL = "https://www.yellowpages.com"
	// DirectoryTimeout bounds listing requests, which are slower than site fetches.
	DirectoryTimeout = 15 * time.Second
)

// Listing is one result card of a directory page.
type Listing struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Website    string `json:"website,omitempty"`
}

// DirectoryPage is one page of directory listings with its pagination estimate.
type DirectoryPage struct {
	Listings []Listing
	Meta     types.SearchMeta
	// Skipped counts cards that could not be parsed.
	Skipped int
}

// DirectoryAdapter scrapes the YellowPages listing and profile pages.
type DirectoryAdapter struct {
	BaseURL string
	Options *fetch.Options
	Verbose bool
	pacer   *Pacer
}

// NewDirectoryAdapter creates the adapter against the public site.
func NewDirectoryAdapter(delay time.Duration, verbose bool) *DirectoryAdapter {
	opts := fetch.DefaultOptions()
	opts.Timeout = DirectoryTimeout
	return &DirectoryAdapter{
		BaseURL: YellowPagesBaseURL,
		Options: opts,
		Verbose: verbose,
		pacer:   NewPacer(delay),
	}
}

// Name returns the backend's display name.
func (y *DirectoryAdapter) Name() string { return YellowPagesName }

// Listings fetches and parses one listing page.
func (y *DirectoryAdapter) Listings(ctx context.Context, query, location string, page int) (*DirectoryPage, error) {
	if page < 1 {
		page = 1
	}
	if err := y.pacer.Wait(ctx); err != nil {
		return nil, &Error{Backend: YellowPagesName, Kind: KindNetwork, Message: "search cancelled", Cause: err}
	}

	opts := *y.options()
	opts.Query = url.Values{
		"search_terms":       {query},
		"geo_location_terms": {location},
		"page":               {strconv.Itoa(page)},
	}

	if y.Verbose {
		log.Printf("[BACKEND] YellowPages page %d: %s in %s", page, query, location)
	}

	result, err := fetch.URL(ctx, strings.TrimSuffix(y.BaseURL, "/")+"/search", &opts)
	if err != nil {
		if result != nil {
			kind := KindNetwork
			message := fmt.Sprintf("HTTP status %d", result.StatusCode)
			if result.StatusCode == 403 {
				kind = KindBlocked
				message = "directory blocked this IP"
			}
			return nil, &Error{Backend: YellowPagesName, Kind: kind, Message: message, Cause: err}
		}
		return nil, &Error{Backend: YellowPagesName, Kind: KindNetwork, Message: "request failed", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, &Error{Backend: YellowPagesName, Kind: KindParse, Message: "failed to parse listing page", Cause: err}
	}

	return y.parseListings(doc, page), nil
}

func (y *DirectoryAdapter) parseListings(doc *goquery.Document, page int) *DirectoryPage {
	out := &DirectoryPage{}
	cards := doc.Find(".result")

	cards.Each(func(_ int, card *goquery.Selection) {
		nameTag := card.Find(".business-name").First()
		name := strings.TrimSpace(nameTag.Text())
		if name == "" {
			out.Skipped++
			return
		}

		listing := Listing{
			Name:  name,
			Phone: strings.TrimSpace(card.Find(".phones").First().Text()),
		}
		if href, ok := nameTag.Attr("href"); ok && href != "" {
			listing.ProfileURL = y.resolve(href)
		}
		if href, ok := card.Find(".links a.track-visit-website").First().Attr("href"); ok {
			listing.Website = strings.TrimSpace(href)
		}
		out.Listings = append(out.Listings, listing)
	})

	out.Meta = EstimateFromDocument(doc, page, cards.Length())
	return out
}

// ProfileEmail reads a directory profile page. Cloudflare-protected anchors are tried
// first, then the "Email Business" button, then any mailto anchor. Boilerplate
// mailboxes are skipped. It returns "" when the page has no usable address.
func (y *DirectoryAdapter) ProfileEmail(ctx context.Context, profileURL string) (string, error) {
	if profileURL == "" {
		return "", nil
	}
	if err := y.pacer.Wait(ctx); err != nil {
		return "", err
	}

	result, err := fetch.URL(ctx, profileURL, y.options())
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return "", &Error{Backend: YellowPagesName, Kind: KindParse, Message: "failed to parse profile page", Cause: err}
	}
	return profileEmail(doc), nil
}

func profileEmail(doc *goquery.Document) string {
	for _, email := range extract.CloudflareEmails(doc) {
		if !extract.IsDirectoryJunk(email) {
			return email
		}
	}

	if href, ok := doc.Find("a.email-business").First().Attr("href"); ok {
		if email := extract.MailtoAddress(href); email != "" {
			return email
		}
	}

	for _, email := range extract.MailtoEmails(doc) {
		if !extract.IsDirectoryJunk(email) {
			return email
		}
	}
	return ""
}

func (y *DirectoryAdapter) resolve(href string) string {
	base, err := url.Parse(y.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (y *DirectoryAdapter) options() *fetch.Options {
	if y.Options == nil {
		opts := fetch.DefaultOptions()
		opts.Timeout = DirectoryTimeout
		return opts
	}
	return y.Options
}
