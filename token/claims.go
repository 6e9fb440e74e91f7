package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// secondsPerDay converts the configured expiry (whole days) to seconds.
const secondsPerDay = 86400

// Claims is the signed payload of a session token.
type Claims struct {
	Username    string `json:"username"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// NewClaims builds the canonical claim set for a freshly authenticated
// user. The validity window starts at now (truncated to whole seconds) and
// lasts expiryDays days; nbf always equals iat.
func NewClaims(username, displayName, issuer string, expiryDays int, now time.Time) Claims {
	issued := time.Unix(now.Unix(), 0)
	expires := issued.Add(time.Duration(expiryDays) * secondsPerDay * time.Second)

	return Claims{
		Username:    username,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	return numericTime(c.IssuedAt)
}

// NotBeforeTime returns nbf, or the zero time when absent.
func (c *Claims) NotBeforeTime() time.Time {
	return numericTime(c.NotBefore)
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	return numericTime(c.ExpiresAt)
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
