package app

import (
	"context"
	"fmt"

	"github.com/upb/login-api/auth"
	"github.com/upb/login-api/config"
	"github.com/upb/login-api/handlers"
	"github.com/upb/login-api/identity"
	"github.com/upb/login-api/middleware"
	"github.com/upb/login-api/services"
	"github.com/upb/login-api/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Token signing
	Codec *token.Codec

	// Identity. Credentials is set only for the file verifier.
	Verifier    identity.Verifier
	Credentials *identity.FileVerifier
	Directory   identity.Directory

	// Services
	Sessions *services.SessionService

	// HTTP
	authHandler    *auth.Handler
	AuthMiddleware *middleware.AuthMiddleware
	Health         *handlers.HealthHandler
}

// AuthHandler returns the auth handler for route wiring
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// NewDependencies creates and wires up all application dependencies. The
// shared secret is read here, once, and never again for the life of the
// process.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initCodec(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	if err := deps.initIdentity(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	deps.initSessions(cfg)
	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("issuer", cfg.Session.Issuer),
		zap.Int("token_expiry_days", cfg.Session.TokenExpiryDays),
		zap.String("verifier", cfg.Auth.Verifier))
	return deps, nil
}

// initCodec loads the shared secret and builds the token codec
func (d *Dependencies) initCodec(cfg *config.Config) error {
	secret, info, err := token.LoadSecret(cfg.Auth.SharedSecretPath)
	if err != nil {
		return err
	}

	if info.Length < token.RecommendedSecretLength {
		d.Logger.Warn("shared secret is shorter than recommended",
			zap.Int("length", info.Length),
			zap.Int("recommended", token.RecommendedSecretLength))
	}
	if info.Exposed {
		d.Logger.Warn("shared secret is readable by other users",
			zap.String("path", cfg.Auth.SharedSecretPath))
	}

	codec, err := token.NewCodec(secret)
	if err != nil {
		return err
	}
	d.Codec = codec
	return nil
}

// initIdentity builds the credential verifier and the principal directory
func (d *Dependencies) initIdentity(cfg *config.Config) error {
	fields := []zap.Field{
		zap.String("verifier", cfg.Auth.Verifier),
		zap.String("directory", cfg.Auth.Directory),
	}

	switch cfg.Auth.Verifier {
	case config.VerifierFile:
		credentials, err := identity.NewFileVerifier(cfg.Auth.CredentialsFile)
		if err != nil {
			return err
		}
		d.Verifier = credentials
		d.Credentials = credentials
		fields = append(fields, zap.String("credentials_file", credentials.Path()))
	case config.VerifierPAM:
		pam, err := identity.NewPAMVerifier(cfg.Auth.PAMService)
		if err != nil {
			return err
		}
		d.Verifier = pam
		fields = append(fields, zap.String("pam_service", pam.Service()))
	default:
		return fmt.Errorf("unknown verifier %q", cfg.Auth.Verifier)
	}

	switch cfg.Auth.Directory {
	case config.DirectorySystem:
		d.Directory = identity.NewSystemDirectory()
	case config.DirectoryFile:
		if d.Credentials == nil {
			return fmt.Errorf("the %s directory requires the %s verifier", config.DirectoryFile, config.VerifierFile)
		}
		d.Directory = d.Credentials
	default:
		return fmt.Errorf("unknown directory %q", cfg.Auth.Directory)
	}

	d.Logger.Info("identity provider configured", fields...)
	return nil
}

// initSessions builds the session service
func (d *Dependencies) initSessions(cfg *config.Config) {
	d.Sessions = services.NewSessionService(
		d.Verifier,
		d.Directory,
		d.Codec,
		services.SessionConfig{
			Issuer:     cfg.Session.Issuer,
			ExpiryDays: cfg.Session.TokenExpiryDays,
		},
		d.Logger,
	)
}

// initHTTP builds the HTTP handlers and middleware
func (d *Dependencies) initHTTP(cfg *config.Config) {
	cookies := auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		Domain: cfg.Session.CookieDomain,
	}
	d.authHandler = auth.NewHandler(d.Sessions, cookies, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.authHandler.CookieName(), d.Logger)
	checks := map[string]handlers.CheckFunc{}
	if d.Credentials != nil {
		checks["credentials"] = d.Credentials.Check
	}
	d.Health = handlers.NewHealthHandler(checks, d.Logger)
}

// Close flushes buffered log entries
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")
	// Sync fails on unbuffered outputs such as a terminal
	_ = d.Logger.Sync()
	return nil
}
