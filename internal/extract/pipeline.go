// Package extract turns fetched pages into contact candidates. It combines an optional
// intelligence extractor with deterministic regex extraction, Cloudflare decoding and
// candidate selection.
package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/lead-scraper/internal/types"
)

// MaxIntelligenceText caps the page text handed to the intelligence extractor.
const MaxIntelligenceText = 15000

// Intelligence is an external extractor (an LLM) that reads page text and returns a
// structured record. A nil record or an error means "no signal".
type Intelligence interface {
	Extract(ctx context.Context, pageText, sourceURL string) (*types.BusinessInfo, error)
}

// SnippetIntelligence is implemented by extractors with a dedicated prompt for search
// result snippets. Extractors without it receive the snippet through Extract.
type SnippetIntelligence interface {
	ExtractSnippet(ctx context.Context, snippetText, sourceURL string) (*types.BusinessInfo, error)
}

// Pipeline is the per-site extraction pipeline. A nil Intelligence disables the
// intelligence step. Pipeline is safe for concurrent use when Intelligence is.
type Pipeline struct {
	Intelligence Intelligence
	Verbose      bool
}

// NewPipeline creates a Pipeline. intel may be nil.
func NewPipeline(intel Intelligence, verbose bool) *Pipeline {
	return &Pipeline{Intelligence: intel, Verbose: verbose}
}

// page is one fetched document of a bundle.
type page struct {
	url  string
	html string
	text string
}

// pageResult is what the pipeline learned from one page.
type pageResult struct {
	info    *types.BusinessInfo
	regex   PageCandidates
	infoHit bool
}

// Run extracts the best contact candidate from a visited site. Pages are processed
// home first, then contact. It returns nil when neither an email nor a phone is found.
func (p *Pipeline) Run(ctx context.Context, target types.CrawlTarget, bundle *types.PageBundle) *types.ExtractionCandidate {
	if bundle == nil {
		return nil
	}

	pages := []page{{url: bundle.URL, html: bundle.HomeHTML, text: bundle.HomeText}}
	if bundle.HasContact() {
		pages = append(pages, page{url: bundle.ContactURL, html: bundle.ContactHTML, text: bundle.ContactText})
	}

	results := make([]pageResult, 0, len(pages))
	for _, pg := range pages {
		results = append(results, p.runPage(ctx, pg))
	}

	siteURL := bundle.URL
	if siteURL == "" {
		siteURL = target.URL
	}
	return merge(results, siteURL)
}

func (p *Pipeline) runPage(ctx context.Context, pg page) pageResult {
	if p.Intelligence != nil && strings.TrimSpace(pg.text) != "" {
		info := cleanInfo(p.intelligence(ctx, truncate(pg.text, MaxIntelligenceText), pg.url, false))
		if info.Usable() {
			return pageResult{info: info, infoHit: true}
		}
	}

	var doc *goquery.Document
	if pg.html != "" {
		if parsed, err := goquery.NewDocumentFromReader(strings.NewReader(pg.html)); err == nil {
			doc = parsed
		}
	}
	return pageResult{regex: ExtractPage(doc, pg.text)}
}

// cleanInfo returns a copy of info with its email passed through CleanEmail and its
// phone trimmed, so usability is judged on what merge will keep.
func cleanInfo(info *types.BusinessInfo) *types.BusinessInfo {
	if info == nil {
		return nil
	}
	cleaned := *info
	cleaned.Email = nil
	cleaned.Phone = nil
	if email := CleanEmail(types.Deref(info.Email)); email != "" {
		cleaned.Email = &email
	}
	if phone := strings.TrimSpace(types.Deref(info.Phone)); phone != "" {
		cleaned.Phone = &phone
	}
	return &cleaned
}

// merge combines page results. The first intelligence email wins; otherwise the
// selector picks among all regex emails. Phones follow the same precedence.
func merge(results []pageResult, siteURL string) *types.ExtractionCandidate {
	var (
		email, phone       string
		emailInfo, anyInfo *types.BusinessInfo
		phoneInfo          *types.BusinessInfo
		regexEmails        []string
		regexPhone         string
	)
	seen := make(map[string]bool)

	for _, r := range results {
		if r.infoHit {
			if anyInfo == nil {
				anyInfo = r.info
			}
			if email == "" {
				if cleaned := CleanEmail(types.Deref(r.info.Email)); cleaned != "" {
					email = cleaned
					emailInfo = r.info
				}
			}
			if phone == "" {
				if v := strings.TrimSpace(types.Deref(r.info.Phone)); v != "" {
					phone = v
					phoneInfo = r.info
				}
			}
			continue
		}
		for _, e := range r.regex.Emails {
			regexEmails = appendEmail(regexEmails, seen, e)
		}
		if regexPhone == "" {
			regexPhone = r.regex.Phone
		}
	}

	strategy := types.StrategyRegex
	info := anyInfo
	switch {
	case email != "":
		strategy = types.StrategyIntelligence
		info = emailInfo
	case len(regexEmails) > 0:
		email = SelectBest(regexEmails, siteURL)
	case phone != "":
		strategy = types.StrategyIntelligence
		info = phoneInfo
	}
	if phone == "" {
		phone = regexPhone
	}

	if email == "" && phone == "" {
		return nil
	}

	candidate := &types.ExtractionCandidate{
		Email:    email,
		Phone:    phone,
		Strategy: strategy,
	}
	if info != nil {
		candidate.Name = strings.TrimSpace(types.Deref(info.BusinessName))
		candidate.Location = strings.TrimSpace(types.Deref(info.Location))
		candidate.Industry = strings.TrimSpace(types.Deref(info.Industry))
	}
	return candidate
}

// ExtractSnippet extracts a candidate from a search result without visiting the page.
// The intelligence extractor reads the title and snippet; regex over the snippet is
// the fallback when it yields no email.
func (p *Pipeline) ExtractSnippet(ctx context.Context, title, snippet, sourceURL string) *types.ExtractionCandidate {
	candidate := &types.ExtractionCandidate{Strategy: types.StrategyRegex}

	if p.Intelligence != nil {
		text := fmt.Sprintf("Title: %s\nSnippet: %s", title, snippet)
		if info := p.intelligence(ctx, text, sourceURL, true); info != nil {
			candidate.Name = strings.TrimSpace(types.Deref(info.BusinessName))
			candidate.Location = strings.TrimSpace(types.Deref(info.Location))
			candidate.Industry = strings.TrimSpace(types.Deref(info.Industry))
			candidate.Phone = strings.TrimSpace(types.Deref(info.Phone))
			if email := CleanEmail(types.Deref(info.Email)); email != "" {
				candidate.Email = email
				candidate.Strategy = types.StrategyIntelligence
			}
		}
	}

	if candidate.Email == "" {
		if emails := FindEmails(title + " " + snippet); len(emails) > 0 {
			candidate.Email = emails[0]
			candidate.Strategy = types.StrategyRegex
		}
	}
	if candidate.Phone == "" {
		candidate.Phone = FirstPhone(snippet)
	}

	if !candidate.HasSignal() {
		return nil
	}
	return candidate
}

// intelligence calls the extractor and swallows its errors.
func (p *Pipeline) intelligence(ctx context.Context, text, sourceURL string, snippet bool) *types.BusinessInfo {
	var (
		info *types.BusinessInfo
		err  error
	)
	if s, ok := p.Intelligence.(SnippetIntelligence); ok && snippet {
		info, err = s.ExtractSnippet(ctx, text, sourceURL)
	} else {
		info, err = p.Intelligence.Extract(ctx, text, sourceURL)
	}
	if err != nil {
		if p.Verbose {
			log.Printf("[EXTRACT] Intelligence failed for %s: %v", sourceURL, err)
		}
		return nil
	}
	return info
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
