// Package middleware's CORS handler applies Access-Control-Allow-* headers based on CORSConfig, handling preflight OPTIONS requests directly.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is a list of origins that are allowed to make cross-origin requests.
	// Use ["*"] to allow all origins (not recommended for production with credentials).
	AllowedOrigins []string

	// AllowedMethods is a list of HTTP methods allowed for cross-origin requests.
	AllowedMethods []string

	// AllowedHeaders is a list of request headers allowed for cross-origin requests.
	AllowedHeaders []string

	// ExposedHeaders is a list of response headers exposed to the client.
	ExposedHeaders []string

	// AllowCredentials indicates whether credentials (cookies, auth headers) are allowed.
	AllowCredentials bool

	// MaxAge indicates how long (in seconds) preflight results can be cached.
	MaxAge int

	// AllowWildcard enables subdomain wildcard matching (e.g., *.example.com).
	AllowWildcard bool
}

// DefaultCORSConfig returns a secure default CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
			"X-Request-ID",
			"X-Tenant-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
		AllowWildcard:    false,
	}
}

// CORS returns middleware that handles Cross-Origin Resource Sharing.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	// Pre-compute joined strings for performance
	allowedMethodsStr := strings.Join(config.AllowedMethods, ", ")
	allowedHeadersStr := strings.Join(config.AllowedHeaders, ", ")
	exposedHeadersStr := strings.Join(config.ExposedHeaders, ", ")
	maxAgeStr := strconv.Itoa(config.MaxAge)

	// Build origin lookup set for O(1) matching
	originSet := make(map[string]bool, len(config.AllowedOrigins))
	var wildcardPatterns []string
	allowAll := false

	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		} else if config.AllowWildcard && strings.HasPrefix(origin, "*.") {
			wildcardPatterns = append(wildcardPatterns, origin[1:]) // store ".example.com"
		} else {
			originSet[strings.ToLower(origin)] = true
		}
	}

	isOriginAllowed := func(origin string) bool {
		if allowAll {
			return true
		}
		if originSet[strings.ToLower(origin)] {
			return true
		}
		for _, pattern := range wildcardPatterns {
			if strings.HasSuffix(strings.ToLower(origin), pattern) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// No Origin header means same-origin or non-browser request
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Validate origin
			if !isOriginAllowed(origin) {
				// Origin not allowed — proceed without CORS headers
				// The browser will block the response on the client side
				next.ServeHTTP(w, r)
				return
			}

			// Set Vary header for proper caching
			w.Header().Add("Vary", "Origin")
			w.Header().Add("Vary", "Access-Control-Request-Method")
			w.Header().Add("Vary", "Access-Control-Request-Headers")

			// Set allowed origin
			if allowAll && !config.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			// Set credentials
			if config.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Handle preflight (OPTIONS) request
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowedMethodsStr)
				w.Header().Set("Access-Control-Allow-Headers", allowedHeadersStr)
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", maxAgeStr)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// Set exposed headers for actual requests
			if exposedHeadersStr != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposedHeadersStr)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware wraps CORS middleware for use with router configuration.
type CORSMiddleware struct {
	handler func(http.Handler) http.Handler
}

// NewCORSMiddleware creates a new CORS middleware with the given config.
func NewCORSMiddleware(config CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{
		handler: CORS(config),
	}
}

// Handler returns the middleware handler function.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return m.handler(next)
}

