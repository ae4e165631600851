package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns nil when no configuration applies. Paths ending in "/" match by prefix,
// so "/runs/" covers "/runs/{id}/leads".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks are never limited
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{}
	}

	var prefix *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if config.Path == path {
			return config
		}
		// Longest prefix wins
		if strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			if prefix == nil || len(config.Path) > len(prefix.Path) {
				prefix = config
			}
		}
	}
	return prefix
}
