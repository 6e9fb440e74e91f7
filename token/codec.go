// Package token mints and verifies HS256 session tokens.
//
// Verification never returns a bare error. It classifies the input into
// exactly one Outcome so callers can log the reason while presenting a
// single failure to the client.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptySecret is returned when a codec is built without a signing secret
	ErrEmptySecret = errors.New("token: signing secret is empty")

	// ErrMissingUsername is returned when a token lacks the username claim
	ErrMissingUsername = errors.New("token: missing required claim: username")
)

// Outcome classifies the result of verifying a token.
type Outcome int

const (
	// Valid means the token is authentic, current and complete.
	Valid Outcome = iota
	// Expired means the signature checked out but exp has passed.
	Expired
	// InvalidSignature means the token was not signed with our secret,
	// or was signed with an algorithm we do not accept.
	InvalidSignature
	// Malformed means the input is not a structurally valid token.
	Malformed
	// MissingRequiredClaim means an authentic token lacks a claim we need.
	MissingRequiredClaim
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case InvalidSignature:
		return "invalid_signature"
	case Malformed:
		return "malformed"
	case MissingRequiredClaim:
		return "missing_required_claim"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of Codec.Verify. Claims is set only when Outcome
// is Valid. Err carries the underlying cause for diagnostics.
type Result struct {
	Outcome Outcome
	Claims  *Claims
	Err     error
}

// Valid reports whether the token can be trusted.
func (r Result) Valid() bool {
	return r.Outcome == Valid && r.Claims != nil
}

// Codec signs and verifies session tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithClock sets the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a codec for the given secret. The secret is copied.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mint signs the claims and returns the compact token string.
func (c *Codec) Mint(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature, expiry and required claims, in that
// order, and reports the first failure.
func (c *Codec) Verify(tokenString string) Result {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return Result{Outcome: classify(err), Err: err}
	}
	if !tok.Valid {
		return Result{Outcome: Malformed, Err: errors.New("token: not valid")}
	}

	if claims.Username == "" {
		return Result{Outcome: MissingRequiredClaim, Err: ErrMissingUsername}
	}

	return Result{Outcome: Valid, Claims: claims}
}

// classify translates jwt library errors to an Outcome
func classify(err error) Outcome {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Malformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return InvalidSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return InvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Expired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return MissingRequiredClaim
	default:
		// nbf in the future and anything else we did not mint ourselves
		return Malformed
	}
}
