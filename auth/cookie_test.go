package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCookieDomain(t *testing.T) {
	tests := []struct {
		host     string
		expected string
		ok       bool
	}{
		{"localhost", "localhost", true},
		{"localhost:9292", "localhost", true},
		{"LOCALHOST", "localhost", true},
		{"127.0.0.1", "", false},
		{"127.0.0.1:8080", "", false},
		{"10.1.2", "", false},
		{"[::1]:8080", "", false},
		{"::1", "", false},
		{"www.example.co.uk", ".example.co.uk", true},
		{"foo.example.co.uk", ".example.co.uk", true},
		{"example.co.uk", ".example.co.uk", true},
		{"a.b.example.com", ".example.com", true},
		{"example.com", ".example.com", true},
		{"example.com:443", ".example.com", true},
		{"example.com.", ".example.com", true},
		{"shop.example.com.au", ".example.com.au", true},
		{"lots.of.subdomains.example.local", ".example.local", true},
		{"login.center.alces-flight.com", ".alces-flight.com", true},
		{"www.foo.com", ".www.foo.com", true},
		{"user.github.io", ".github.io", true},
		{"intranet", "", false},
		{"", "", false},
		{"a..example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			domain, ok := ResolveCookieDomain(tt.host)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, domain)
		})
	}
}

func TestSessionCookie(t *testing.T) {
	expires := time.Unix(1700000000, 0)

	t.Run("attributes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "http://www.example.co.uk/sign-in", nil)

		c := testCookies.sessionCookie(r, "tok", expires)

		assert.Equal(t, "flight_login", c.Name)
		assert.Equal(t, "tok", c.Value)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, ".example.co.uk", c.Domain)
		assert.True(t, c.Expires.Equal(expires))
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	})

	t.Run("numeric hosts get a host-only cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "http://127.0.0.1:9292/sign-in", nil)

		c := testCookies.sessionCookie(r, "tok", expires)

		assert.Empty(t, c.Domain)
		assert.NotContains(t, c.String(), "Domain=")
	})

	t.Run("secure over tls", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "https://example.com/sign-in", nil)
		r.TLS = &tls.ConnectionState{}

		assert.True(t, testCookies.sessionCookie(r, "tok", expires).Secure)
	})

	t.Run("secure behind a tls terminating proxy", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "http://example.com/sign-in", nil)
		r.Header.Set("X-Forwarded-Proto", "https")

		assert.True(t, testCookies.sessionCookie(r, "tok", expires).Secure)
	})

	t.Run("serialized form", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "http://a.b.example.com/sign-in", nil)

		s := testCookies.sessionCookie(r, "tok", expires).String()

		assert.True(t, strings.HasPrefix(s, "flight_login=tok"))
		assert.Contains(t, s, "Domain=example.com")
		assert.Contains(t, s, "HttpOnly")
		assert.Contains(t, s, "SameSite=Strict")
	})
}

func TestSessionCookie_PinnedDomain(t *testing.T) {
	cookies := CookieConfig{Name: "flight_login", Domain: ".example.org"}
	r := httptest.NewRequest(http.MethodPost, "http://login.example.com/sign-in", nil)

	assert.Equal(t, ".example.org", cookies.sessionCookie(r, "tok", time.Now()).Domain)
	assert.Equal(t, ".example.org", cookies.expiredSessionCookie(r).Domain)
}

func TestExpiredSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "http://www.example.co.uk/sign-out", nil)

	c := testCookies.expiredSessionCookie(r)

	assert.Equal(t, "flight_login", c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, ".example.co.uk", c.Domain)
	assert.Equal(t, "/", c.Path)
	assert.Less(t, c.MaxAge, 0)
	require.False(t, c.Expires.IsZero())
	assert.True(t, c.Expires.Before(time.Now()))
	assert.Contains(t, c.String(), "Max-Age=0")
}
