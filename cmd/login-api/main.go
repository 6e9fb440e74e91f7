package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/upb/login-api/app"
	"github.com/upb/login-api/config"
	"github.com/upb/login-api/identity"
	"github.com/upb/login-api/routes"
	"github.com/upb/login-api/token"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = `usage: login-api [--config FILE] [--env-file FILE] <command>

commands:
  serve                          run the HTTP API (default)
  hash [--scheme bcrypt|argon2id] read a password on stdin and print its hash
  gen-secret [--length N] [PATH] write a new shared secret
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "login-api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("login-api", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }

	var opts config.Options
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load before the environment")
	if err := fs.Parse(args); err != nil {
		return err
	}

	command, rest := "serve", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "serve":
		return runServe(ctx, opts)
	case "hash":
		return runHash(rest, stdin, stdout)
	case "gen-secret":
		return runGenSecret(ctx, opts, rest, stdout)
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runServe(ctx context.Context, opts config.Options) error {
	cfg, err := config.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}
	defer deps.Close(context.Background())

	ln, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address(), err)
	}
	return serve(ctx, deps, ln)
}

// serve runs the API on ln until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func serve(ctx context.Context, deps *app.Dependencies, ln net.Listener) error {
	cfg := deps.Config
	logger := deps.Logger

	srv := &http.Server{
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("login-api listening",
			zap.String("address", ln.Addr().String()),
			zap.Bool("tls", cfg.Server.TLS.Enabled),
			zap.String("environment", cfg.Environment))

		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ServeTLS(ln, cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func runHash(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("hash", pflag.ContinueOnError)
	scheme := fs.String("scheme", string(identity.SchemeBcrypt), "hash scheme: bcrypt or argon2id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")

	hash, err := identity.HashPassword(password, identity.Scheme(*scheme))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func runGenSecret(ctx context.Context, opts config.Options, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-secret", pflag.ContinueOnError)
	length := fs.Int("length", token.RecommendedSecretLength, "secret length in characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := fs.Arg(0)
	if path == "" {
		cfg, err := config.New(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		path = cfg.Auth.SharedSecretPath
	}

	if err := token.GenerateSecret(path, *length); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "wrote shared secret to %s\n", path)
	return err
}

// initLogger builds the process logger from the observability settings
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	obs := cfg.Observability
	if strings.EqualFold(obs.LogLevel, "disabled") {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(strings.ToLower(obs.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", obs.LogLevel, err)
	}

	format := obs.LogFormat
	if format == "" {
		format = "json"
		if cfg.IsDevelopment() {
			format = "console"
		}
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", obs.LogFormat)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapConfig.OutputPaths = []string{"stdout"}
	if obs.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(obs.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zapConfig.OutputPaths = []string{obs.LogPath}
	}

	return zapConfig.Build()
}
