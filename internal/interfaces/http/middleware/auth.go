// AuthMiddleware authenticates requests via a Bearer token or an X-API-Key header, injecting the resolved identity into the request context.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// claimsContextKey is the context key for JWT claims.
	claimsContextKey contextKey = iota
	// apiKeyInfoContextKey is the context key for API key info.
	apiKeyInfoContextKey
)

// Claims represents the decoded JWT token claims.
type Claims struct {
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// APIKeyInfo represents validated API key information.
type APIKeyInfo struct {
	KeyID     string   `json:"key_id"`
	TenantID  string   `json:"tenant_id"`
	Scopes    []string `json:"scopes"`
	RateLimit int      `json:"rate_limit"`
}

// TokenValidator validates JWT bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

// APIKeyValidator validates API keys.
type APIKeyValidator interface {
	ValidateAPIKey(key string) (*APIKeyInfo, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SkipPaths are paths that bypass authentication entirely.
	SkipPaths []string
	// AllowExpiredGracePeriod allows tokens expired within this duration.
	AllowExpiredGracePeriod time.Duration
}

// AuthMiddleware provides HTTP authentication middleware.
type AuthMiddleware struct {
	tokenValidator  TokenValidator
	apiKeyValidator APIKeyValidator
	config          AuthConfig
	logger          logging.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(
	tokenValidator TokenValidator,
	apiKeyValidator APIKeyValidator,
	config AuthConfig,
	logger logging.Logger,
) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator:  tokenValidator,
		apiKeyValidator: apiKeyValidator,
		config:          config,
		logger:          logger,
	}
}

// Authenticate returns middleware that enforces authentication.
// Requests without valid credentials receive 401 Unauthorized.
func (m *AuthMiddleware) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check skip paths
			if m.shouldSkip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Try Bearer token first
			if token := extractBearerToken(r); token != "" {
				claims, err := m.tokenValidator.ValidateToken(token)
				if err != nil {
					m.logger.Error("token validation failed", logging.Err(err), logging.String("path", r.URL.Path))
					writeUnauthorized(w, "invalid or expired token")
					return
				}

				// Check expiration
				if time.Now().After(claims.ExpiresAt.Add(m.config.AllowExpiredGracePeriod)) {
					writeUnauthorized(w, "token expired")
					return
				}

				ctx := context.WithValue(r.Context(), claimsContextKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Try API key
			if apiKey := extractAPIKey(r); apiKey != "" {
				info, err := m.apiKeyValidator.ValidateAPIKey(apiKey)
				if err != nil {
					m.logger.Error("API key validation failed", logging.Err(err), logging.String("path", r.URL.Path))
					writeUnauthorized(w, "invalid API key")
					return
				}

				ctx := context.WithValue(r.Context(), apiKeyInfoContextKey, info)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// No credentials provided
			writeUnauthorized(w, "authentication required")
		})
	}
}

// OptionalAuth returns middleware that attempts authentication but allows anonymous access.
func (m *AuthMiddleware) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try Bearer token
			if token := extractBearerToken(r); token != "" {
				claims, err := m.tokenValidator.ValidateToken(token)
				if err == nil && time.Now().Before(claims.ExpiresAt.Add(m.config.AllowExpiredGracePeriod)) {
					ctx := context.WithValue(r.Context(), claimsContextKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			// Try API key
			if apiKey := extractAPIKey(r); apiKey != "" {
				info, err := m.apiKeyValidator.ValidateAPIKey(apiKey)
				if err == nil {
					ctx := context.WithValue(r.Context(), apiKeyInfoContextKey, info)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			// Continue as anonymous
			next.ServeHTTP(w, r)
		})
	}
}

// shouldSkip checks if the given path should bypass authentication.
func (m *AuthMiddleware) shouldSkip(path string) bool {
	for _, skip := range m.config.SkipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// extractBearerToken extracts the Bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// extractAPIKey extracts the API key from the X-API-Key header.
func extractAPIKey(r *http.Request) string {
	key := r.Header.Get("X-API-Key")
	if key != "" {
		return strings.TrimSpace(key)
	}
	// Fallback: check query parameter (less secure, for webhook callbacks)
	return r.URL.Query().Get("api_key")
}

// ContextGetClaims retrieves JWT claims from the request context.
// Returns nil if no claims are present (anonymous or API key auth).
func ContextGetClaims(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// ContextGetAPIKeyInfo retrieves API key info from the request context.
// Returns nil if no API key info is present (anonymous or JWT auth).
func ContextGetAPIKeyInfo(ctx context.Context) *APIKeyInfo {
	info, ok := ctx.Value(apiKeyInfoContextKey).(*APIKeyInfo)
	if !ok {
		return nil
	}
	return info
}

// ContextGetTenantID extracts the tenant ID from either JWT claims or API key info.
// Returns empty string if no authentication context is present.
func ContextGetTenantID(ctx context.Context) string {
	if claims := ContextGetClaims(ctx); claims != nil {
		return claims.TenantID
	}
	if info := ContextGetAPIKeyInfo(ctx); info != nil {
		return info.TenantID
	}
	return ""
}

// ContextGetUserID extracts the user ID from JWT claims.
// Returns empty string if not authenticated via JWT.
func ContextGetUserID(ctx context.Context) string {
	if claims := ContextGetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

// IsAuthenticated checks whether the request context contains valid authentication.
func IsAuthenticated(ctx context.Context) bool {
	return ContextGetClaims(ctx) != nil || ContextGetAPIKeyInfo(ctx) != nil
}

// writeUnauthorized writes a 401 Unauthorized JSON response.
// Intentionally vague to avoid leaking authentication details.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tender-intel"`)
	w.WriteHeader(http.StatusUnauthorized)
	// Use generic message in production to avoid information leakage
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}


