package middleware

import "net/http"

// OriginHeader copies a non-empty X-Origin header over Origin, for clients
// that cannot set Origin themselves.
func OriginHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("X-Origin"); origin != "" {
			r.Header.Set("Origin", origin)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticOrigin always names domain as the allowed origin, whatever the
// caller presents. Browsers then enforce the match themselves.
func StaticOrigin(domain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", domain)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			next.ServeHTTP(w, r)
		})
	}
}
