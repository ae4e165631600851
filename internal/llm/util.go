// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers and conversational text
// around a JSON response. Models often wrap JSON in ```json ... ``` blocks or add
// a preamble even in JSON mode.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		if balanced := extractBalanced(text); balanced != "" {
			return balanced
		}
		return text
	}

	// Preamble before the payload: start at the first opening bracket
	if idx := strings.IndexAny(text, "{["); idx >= 0 {
		if balanced := extractBalanced(text[idx:]); balanced != "" {
			return balanced
		}
	}

	return text
}

func extractBalanced(text string) string {
	if strings.HasPrefix(text, "[") {
		return extractJSONArray(text)
	}
	return extractJSONObject(text)
}

// extractJSONObject returns the leading balanced {...} of text, or "".
func extractJSONObject(text string) string {
	return scanBalanced(text, '{', '}')
}

// extractJSONArray returns the leading balanced [...] of text, or "".
func extractJSONArray(text string) string {
	return scanBalanced(text, '[', ']')
}

func scanBalanced(text string, open, closing byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
