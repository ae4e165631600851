package pipeline

import (
	"fmt"

	"github.com/jonathan/lead-scraper/internal/types"
)

// DeepSource labels a lead found by visiting a site returned by backendName.
func DeepSource(backendName string, candidate *types.ExtractionCandidate) string {
	if candidate != nil && candidate.Strategy == types.StrategyIntelligence {
		if candidate.Industry != "" {
			return fmt.Sprintf("%s (AI: %s)", backendName, candidate.Industry)
		}
		return backendName + " (AI)"
	}
	return backendName + " (Deep)"
}

// DirectorySource labels a lead read from a directory listing page.
func DirectorySource(page int) string {
	return fmt.Sprintf("YellowPages (Pg %d)", page)
}

// SocialSource labels a lead read from a profile search snippet.
func SocialSource(platform types.Platform, candidate *types.ExtractionCandidate) string {
	if candidate != nil && candidate.Industry != "" {
		return fmt.Sprintf("%s (AI: %s)", platform, candidate.Industry)
	}
	return fmt.Sprintf("Social (%s)", platform)
}
