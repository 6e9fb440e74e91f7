package auth

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie name used when none is configured
const DefaultCookieName = "flight_login"

// ResolveCookieDomain derives the Domain attribute of the session cookie
// from the request host, so that a cookie set on one subdomain is sent to
// its siblings. ok is false when the cookie should be host-only.
//
// The registrable domain is guessed: the last two labels are kept, or the
// last three when the final two are both two or three letters long
// (example.co.uk, example.com.au). Suffixes such as github.io are not
// recognised, and www.foo.com yields .www.foo.com.
func ResolveCookieDomain(host string) (domain string, ok bool) {
	host = strings.ToLower(stripPort(host))
	host = strings.TrimSuffix(host, ".")

	if host == "localhost" {
		return "localhost", true
	}
	if host == "" || isDottedNumeric(host) || strings.Contains(host, ":") {
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", false
	}
	for _, label := range labels {
		if label == "" {
			return "", false
		}
	}

	keep := 2
	n := len(labels)
	if n >= 3 && isShortAlpha(labels[n-1]) && isShortAlpha(labels[n-2]) {
		keep = 3
	}
	return "." + strings.Join(labels[n-keep:], "."), true
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isDottedNumeric(host string) bool {
	for _, c := range host {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func isShortAlpha(label string) bool {
	if len(label) < 2 || len(label) > 3 {
		return false
	}
	for _, c := range label {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// isSecureRequest reports whether the client reached us over HTTPS, either
// directly or through a proxy that sets X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// CookieConfig names the session cookie and optionally pins its domain
type CookieConfig struct {
	Name string
	// Domain replaces the domain derived from the request host when set
	Domain string
}

func (c CookieConfig) domainFor(r *http.Request) (string, bool) {
	if c.Domain != "" {
		return c.Domain, true
	}
	return ResolveCookieDomain(r.Host)
}

// sessionCookie builds the session cookie carrying token for request r
func (c CookieConfig) sessionCookie(r *http.Request, token string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
	}
	if domain, ok := c.domainFor(r); ok {
		cookie.Domain = domain
	}
	return cookie
}

// expiredSessionCookie builds a cookie that makes the browser drop the
// session cookie. Name, domain and path must match the cookie it replaces.
func (c CookieConfig) expiredSessionCookie(r *http.Request) *http.Cookie {
	cookie := c.sessionCookie(r, "", time.Unix(0, 0))
	cookie.MaxAge = -1
	return cookie
}
