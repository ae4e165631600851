// Package llm - extractor.go builds structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "BusinessContact")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
	InputLabel  string        // Heading for the input block, defaults to "Input text"
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent contact details.\n")
	sb.WriteString("- Use null for any field that is not present in the text.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	label := schema.InputLabel
	if label == "" {
		label = "Input text"
	}
	sb.WriteString(label + ":\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// contactFields are the BusinessInfo fields shared by the contact schemas.
func contactFields() []SchemaField {
	return []SchemaField{
		{
			Name:        "business_name",
			Type:        "\"string\" | null",
			Description: "Official name of the business or person",
		},
		{
			Name:        "email",
			Type:        "\"string\" | null",
			Description: "Best contact email found in the text, null if none",
		},
		{
			Name:        "phone",
			Type:        "\"string\" | null",
			Description: "Main phone number, null if none",
		},
		{
			Name:        "location",
			Type:        "\"string\" | null",
			Description: "Full physical address or city/state, null if none",
		},
		{
			Name:        "industry",
			Type:        "\"string\" | null",
			Description: "2-3 word summary of what the business does",
		},
	}
}

// BusinessContactSchema returns the extraction schema for a business website page.
// description is the task preamble, usually loaded from the prompts package.
func BusinessContactSchema(description string) ExtractionSchema {
	return ExtractionSchema{
		Name:        "BusinessContact",
		Description: description,
		Fields:      contactFields(),
		InputLabel:  "Website text",
	}
}

// SocialSnippetSchema returns the extraction schema for a social search result snippet.
func SocialSnippetSchema(description string) ExtractionSchema {
	return ExtractionSchema{
		Name:        "SocialSnippet",
		Description: description,
		Fields:      contactFields(),
		InputLabel:  "Search result",
	}
}
