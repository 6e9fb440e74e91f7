package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/login-api/services"
	"go.uber.org/zap"
)

// writeDomainError is a minimal ErrorHandler for tests
func writeDomainError(w http.ResponseWriter, err error, _ *zap.Logger) {
	domainErr := err.(*services.DomainError)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string][]string{"errors": {domainErr.Message}})
}

func TestRequireJSON(t *testing.T) {
	handler := RequireJSON(writeDomainError, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		method         string
		contentType    string
		accept         []string
		expectedStatus int
	}{
		{"post with json headers", http.MethodPost, "application/json", []string{"application/json"}, http.StatusOK},
		{"post with charset", http.MethodPost, "application/json; charset=utf-8", []string{"application/json"}, http.StatusOK},
		{"post without accept", http.MethodPost, "application/json", nil, http.StatusOK},
		{"post accepting anything", http.MethodPost, "application/json", []string{"*/*"}, http.StatusOK},
		{"post accepting application wildcard", http.MethodPost, "application/json", []string{"application/*"}, http.StatusOK},
		{"post accepting a list", http.MethodPost, "application/json", []string{"text/html, application/json;q=0.9"}, http.StatusOK},
		{"post accepting across header lines", http.MethodPost, "application/json", []string{"text/html", "application/json"}, http.StatusOK},
		{"post with form body", http.MethodPost, "application/x-www-form-urlencoded", []string{"application/json"}, http.StatusUnsupportedMediaType},
		{"post without content type", http.MethodPost, "", []string{"application/json"}, http.StatusUnsupportedMediaType},
		{"content type checked before accept", http.MethodPost, "text/plain", []string{"text/html"}, http.StatusUnsupportedMediaType},
		{"post accepting html only", http.MethodPost, "application/json", []string{"text/html"}, http.StatusNotAcceptable},
		{"json explicitly refused", http.MethodPost, "application/json", []string{"application/json;q=0"}, http.StatusNotAcceptable},
		{"get without content type", http.MethodGet, "", []string{"application/json"}, http.StatusOK},
		{"get accepting html only", http.MethodGet, "", []string{"text/html"}, http.StatusNotAcceptable},
		{"delete without body", http.MethodDelete, "", nil, http.StatusOK},
		{"delete accepting xml", http.MethodDelete, "", []string{"application/xml"}, http.StatusNotAcceptable},
		{"options is exempt", http.MethodOptions, "text/plain", []string{"text/html"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/sign-in", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			for _, accept := range tt.accept {
				req.Header.Add("Accept", accept)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	t.Run("error bodies name the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/session", nil)
		req.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, []string{"Accept must be application/json"}, body["errors"])
	})
}

func TestOriginHeader(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		xOrigin  string
		expected string
	}{
		{"x-origin overrides origin", "https://a.example.com", "https://b.example.com", "https://b.example.com"},
		{"origin kept without x-origin", "https://a.example.com", "", "https://a.example.com"},
		{"x-origin alone", "", "https://b.example.com", "https://b.example.com"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := OriginHeader(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Origin")
			}))

			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.xOrigin != "" {
				req.Header.Set("X-Origin", tt.xOrigin)
			}

			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStaticOrigin(t *testing.T) {
	for _, origin := range []string{"https://portal.example.com", "https://evil.example.net", ""} {
		t.Run("origin "+origin, func(t *testing.T) {
			handler := StaticOrigin("https://portal.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodDelete, "/sign-out", nil)
			if origin != "" {
				req.Header.Set("Origin", origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
