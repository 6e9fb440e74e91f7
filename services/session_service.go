package services

import (
	"context"
	"errors"
	"time"

	"github.com/upb/login-api/identity"
	"github.com/upb/login-api/token"
	"go.uber.org/zap"
)

// TokenCodec mints and verifies session tokens
type TokenCodec interface {
	Mint(claims token.Claims) (string, error)
	Verify(tokenString string) token.Result
}

// Credentials is a username/password pair submitted at sign-in. It is
// never stored or logged.
type Credentials struct {
	Username string
	Password string
}

// Session is the result of a successful sign-in or refresh
type Session struct {
	Principal identity.Principal
	Token     string
	Claims    token.Claims
}

// ExpiresAt returns when the session token stops being accepted
func (s *Session) ExpiresAt() time.Time {
	return s.Claims.ExpiresAtTime()
}

// SessionConfig holds the token parameters for new sessions
type SessionConfig struct {
	Issuer     string
	ExpiryDays int
}

// SessionService signs users in and refreshes their sessions
type SessionService struct {
	verifier  identity.Verifier
	directory identity.Directory
	codec     TokenCodec
	cfg       SessionConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewSessionService creates a new SessionService instance
func NewSessionService(
	verifier identity.Verifier,
	directory identity.Directory,
	codec TokenCodec,
	cfg SessionConfig,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		verifier:  verifier,
		directory: directory,
		codec:     codec,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// SignIn verifies the credentials and issues a new session
func (s *SessionService) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	// Input faults are reported before the identity provider is consulted
	if creds.Username == "" {
		return nil, ErrMissingUsername
	}
	if creds.Password == "" {
		return nil, ErrMissingPassword
	}

	ok, err := s.verifier.Verify(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, WrapUnexpected("credential verification failed", err)
	}
	if !ok {
		s.logger.Debug("sign-in rejected")
		return nil, ErrForbidden
	}

	session, err := s.issue(ctx, creds.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signed in", zap.String("username", session.Principal.Username))
	return session, nil
}

// Refresh validates an existing session token and re-issues it with a
// fresh validity window. Every kind of invalid token is reported as
// ErrForbidden; the specific reason is only logged.
func (s *SessionService) Refresh(ctx context.Context, tokenString string) (*Session, error) {
	result := s.codec.Verify(tokenString)
	if !result.Valid() {
		s.logger.Debug("session rejected",
			zap.Stringer("outcome", result.Outcome),
			zap.Error(result.Err))
		return nil, ErrForbidden
	}

	// Re-resolve the principal rather than trusting the decoded name
	return s.issue(ctx, result.Claims.Username)
}

func (s *SessionService) issue(ctx context.Context, username string) (*Session, error) {
	principal, err := s.directory.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownPrincipal) {
			s.logger.Debug("principal not found", zap.String("username", username))
			return nil, ErrForbidden
		}
		return nil, WrapUnexpected("principal lookup failed", err)
	}

	claims := token.NewClaims(principal.Username, principal.DisplayName, s.cfg.Issuer, s.cfg.ExpiryDays, s.now())
	signed, err := s.codec.Mint(claims)
	if err != nil {
		return nil, WrapUnexpected("failed to mint session token", err)
	}

	return &Session{
		Principal: *principal,
		Token:     signed,
		Claims:    claims,
	}, nil
}
