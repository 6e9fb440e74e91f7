package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/upb/login-api/services"
	"go.uber.org/zap"
)

const jsonMediaType = "application/json"

// ErrorHandler writes a service error as an HTTP response
type ErrorHandler func(w http.ResponseWriter, err error, logger *zap.Logger)

// RequireJSON rejects requests that cannot exchange JSON. Requests with a
// body must declare application/json (415 otherwise) and every request
// must accept it (406 otherwise). OPTIONS requests pass untouched.
func RequireJSON(onError ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if hasBody(r.Method) && !isJSONContentType(r.Header.Get("Content-Type")) {
				onError(w, services.ErrUnsupportedContent, logger)
				return
			}
			if !acceptsJSON(r.Header.Values("Accept")) {
				onError(w, services.ErrNotAcceptable, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	return err == nil && mediaType == jsonMediaType
}

// acceptsJSON reports whether the Accept header values admit a JSON
// response. A missing header accepts anything.
func acceptsJSON(values []string) bool {
	seen := false
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			seen = true

			mediaType, params, err := mime.ParseMediaType(item)
			if err != nil {
				continue
			}
			if params["q"] == "0" || params["q"] == "0.0" || params["q"] == "0.000" {
				continue
			}
			switch mediaType {
			case jsonMediaType, "application/*", "*/*":
				return true
			}
		}
	}
	return !seen
}
