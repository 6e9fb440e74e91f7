package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// AuthMiddleware locates the session token presented with a request
type AuthMiddleware struct {
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware reading the named cookie
func NewAuthMiddleware(cookieName string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		cookieName: cookieName,
		logger:     logger,
	}
}

// ExtractSession stores the presented session token in the request
// context. It never rejects a request: deciding whether the token is
// acceptable is left to the handler.
func (m *AuthMiddleware) ExtractSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, source := m.extractToken(r)
		m.logger.Debug("session token located",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.String("source", source))

		next.ServeHTTP(w, r.WithContext(WithSessionToken(ctx, token)))
	})
}

// extractToken returns the token from the session cookie or the
// Authorization header ("Bearer TOKEN"). The cookie takes precedence when
// both are present.
func (m *AuthMiddleware) extractToken(r *http.Request) (token, source string) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "cookie"
	}
	if token := extractBearerToken(r); token != "" {
		return token, "header"
	}
	return "", "none"
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
