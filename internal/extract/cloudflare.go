package extract

import (
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EmailProtectionPath is the Cloudflare path that carries an obfuscated address.
const EmailProtectionPath = "/cdn-cgi/l/email-protection"

// DecodeCloudflare reverses Cloudflare's email obfuscation. encoded is either a full
// email-protection href ("/cdn-cgi/l/email-protection#690a0607") or the bare hex of a
// data-cfemail attribute. The first byte is the XOR key for the rest. Malformed input
// yields ("", false).
func DecodeCloudflare(encoded string) (string, bool) {
	if idx := strings.LastIndex(encoded, "#"); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	encoded = strings.TrimSpace(encoded)
	if len(encoded) < 4 || len(encoded)%2 != 0 {
		return "", false
	}

	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", false
	}

	key := raw[0]
	out := make([]byte, len(raw)-1)
	for i, b := range raw[1:] {
		c := b ^ key
		if c < 0x20 || c > 0x7e {
			return "", false
		}
		out[i] = c
	}
	return string(out), true
}

// CloudflareEmails decodes every protected address in doc, in document order.
// Anchors come before data-cfemail elements; duplicates are dropped.
func CloudflareEmails(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(encoded string) {
		decoded, ok := DecodeCloudflare(encoded)
		if !ok {
			return
		}
		email := CleanEmail(decoded)
		key := strings.ToLower(email)
		if email == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, email)
	}

	doc.Find(`a[href*="` + EmailProtectionPath + `"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(href, "#") {
			add(href)
		}
	})
	doc.Find("[data-cfemail]").Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("data-cfemail")
		add(value)
	})
	return out
}
