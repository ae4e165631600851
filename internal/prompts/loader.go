// Package prompts holds the embedded templates that describe the extraction task to
// the intelligence extractor.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Template keys in extraction.json.
const (
	// BusinessContact describes a business website; placeholder {{.URL}}.
	BusinessContact = "business-contact"
	// SocialSnippet describes a social search result; placeholder {{.Platform}}.
	SocialSnippet = "social-snippet"
)

//go:embed extraction.json
var extractionJSON []byte

var (
	loadOnce  sync.Once
	templates map[string]string
	loadErr   error
)

// Get returns the extraction template stored under key.
func Get(key string) (string, error) {
	loadOnce.Do(func() {
		if err := json.Unmarshal(extractionJSON, &templates); err != nil {
			loadErr = fmt.Errorf("failed to parse extraction prompts: %w", err)
		}
	})
	if loadErr != nil {
		return "", loadErr
	}

	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("extraction prompt %q not found", key)
	}
	return template, nil
}

// Render returns the template stored under key with its placeholders filled from data.
func Render(key string, data map[string]string) (string, error) {
	template, err := Get(key)
	if err != nil {
		return "", err
	}
	return Format(template, data), nil
}

// Format replaces {{.Key}} placeholders with values from data. Placeholders without a
// value are left in place.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, "{{."+key+"}}", value)
	}
	return result
}
