package ratelimit

import (
	"strings"
)

// unlimited is returned for operational endpoints that are never limited.
var unlimited = EndpointConfig{Path: "*"}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/api/jobs/" matches "/api/jobs/{id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		cfg := unlimited
		return &cfg
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Then the longest matching prefix (for paths ending with "/")
	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
