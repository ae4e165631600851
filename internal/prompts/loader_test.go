package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ExtractionTemplates(t *testing.T) {
	contact, err := Get(BusinessContact)
	require.NoError(t, err)
	assert.Contains(t, contact, "{{.URL}}")
	assert.Contains(t, contact, "business_name")

	snippet, err := Get(SocialSnippet)
	require.NoError(t, err)
	assert.Contains(t, snippet, "{{.Platform}}")
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("menu-prices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRender_FillsPlaceholders(t *testing.T) {
	prompt, err := Render(BusinessContact, map[string]string{"URL": "https://acme.com"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "https://acme.com")
	assert.NotContains(t, prompt, "{{.URL}}")

	prompt, err = Render(SocialSnippet, map[string]string{"Platform": "linkedin"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "linkedin profile")
}

func TestRender_UnknownKey(t *testing.T) {
	_, err := Render("menu-prices", nil)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		want     string
	}{
		{"replaces", "Find {{.Query}} leads in {{.Location}}", map[string]string{"Query": "dentists", "Location": "Austin, TX"}, "Find dentists leads in Austin, TX"},
		{"no placeholders", "No placeholders here", map[string]string{"Key": "Value"}, "No placeholders here"},
		{"missing value keeps placeholder", "Leads for {{.Query}}", nil, "Leads for {{.Query}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.data))
		})
	}
}
