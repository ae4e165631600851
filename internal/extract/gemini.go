package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/lead-scraper/internal/llm"
	"github.com/jonathan/lead-scraper/internal/prompts"
	"github.com/jonathan/lead-scraper/internal/schemas"
	"github.com/jonathan/lead-scraper/internal/types"
)

// DefaultGeminiRPM matches the Gemini free tier request budget.
const DefaultGeminiRPM = 15

// ExtractionError wraps failures of the intelligence extractor.
type ExtractionError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("intelligence extraction failed for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("intelligence extraction failed for %s: %s", e.URL, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// GeminiExtractor is the Intelligence implementation backed by an llm.Client.
// Calls are spaced by a shared limiter so concurrent workers stay within the RPM budget.
type GeminiExtractor struct {
	client  llm.Client
	limiter *rate.Limiter
	tier    llm.ModelTier
	verbose bool
}

// NewGeminiExtractor creates an extractor around client. rpm <= 0 uses DefaultGeminiRPM.
func NewGeminiExtractor(client llm.Client, rpm int, verbose bool) *GeminiExtractor {
	if rpm <= 0 {
		rpm = DefaultGeminiRPM
	}
	return &GeminiExtractor{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		tier:    llm.TierLite,
		verbose: verbose,
	}
}

// NewGeminiExtractorFromKey connects to Gemini with apiKey.
func NewGeminiExtractorFromKey(ctx context.Context, apiKey string, rpm int, verbose bool) (*GeminiExtractor, error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return nil, err
	}
	return NewGeminiExtractor(client, rpm, verbose), nil
}

// Close releases the underlying client.
func (g *GeminiExtractor) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Extract reads website text and returns the business record it describes.
func (g *GeminiExtractor) Extract(ctx context.Context, pageText, sourceURL string) (*types.BusinessInfo, error) {
	if g == nil || g.client == nil {
		return nil, nil
	}
	description, err := prompts.Render(prompts.BusinessContact, map[string]string{"URL": sourceURL})
	if err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "failed to load prompt", Cause: err}
	}
	prompt := llm.BuildExtractionPrompt(llm.BusinessContactSchema(description), truncate(pageText, MaxIntelligenceText))
	return g.generate(ctx, prompt, sourceURL)
}

// ExtractSnippet reads a social search result and returns the profile it describes.
func (g *GeminiExtractor) ExtractSnippet(ctx context.Context, snippetText, sourceURL string) (*types.BusinessInfo, error) {
	if g == nil || g.client == nil {
		return nil, nil
	}
	description, err := prompts.Render(prompts.SocialSnippet, map[string]string{"Platform": platformOf(sourceURL)})
	if err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "failed to load prompt", Cause: err}
	}
	prompt := llm.BuildExtractionPrompt(llm.SocialSnippetSchema(description), snippetText)
	return g.generate(ctx, prompt, sourceURL)
}

func (g *GeminiExtractor) generate(ctx context.Context, prompt, sourceURL string) (*types.BusinessInfo, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "rate limiter wait aborted", Cause: err}
	}

	if g.verbose {
		log.Printf("[EXTRACT] Gemini request for %s (%d chars)", sourceURL, len(prompt))
	}

	raw, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "generation failed", Cause: err}
	}

	if err := schemas.ValidateBusinessInfo(raw); err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "response does not match schema", Cause: err}
	}

	var info types.BusinessInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, &ExtractionError{URL: sourceURL, Message: "failed to decode response", Cause: err}
	}
	return &info, nil
}

// platformOf names the social network of a profile URL for the snippet prompt.
func platformOf(sourceURL string) string {
	for _, platform := range []types.Platform{types.PlatformLinkedIn, types.PlatformFacebook, types.PlatformInstagram} {
		if strings.Contains(strings.ToLower(sourceURL), string(platform)+".com") {
			return string(platform)
		}
	}
	return "social media"
}
