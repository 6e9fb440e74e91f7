package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/login-api/app"
	"github.com/upb/login-api/config"
	"github.com/upb/login-api/identity"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		obs         config.ObservabilityConfig
		wantErr     string
	}{
		{"default json logger", "production", config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}, ""},
		{"development console logger", "production", config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"}, ""},
		{"format follows development environment", "development", config.ObservabilityConfig{LogLevel: "info"}, ""},
		{"format follows production environment", "production", config.ObservabilityConfig{LogLevel: "info"}, ""},
		{"defaults when not set", "", config.ObservabilityConfig{}, ""},
		{"disabled", "production", config.ObservabilityConfig{LogLevel: "disabled"}, ""},
		{"disabled in upper case", "production", config.ObservabilityConfig{LogLevel: "DISABLED"}, ""},
		{"upper case level", "production", config.ObservabilityConfig{LogLevel: "WARN"}, ""},
		{"invalid log level", "production", config.ObservabilityConfig{LogLevel: "invalid", LogFormat: "json"}, "invalid log level"},
		{"invalid log format", "production", config.ObservabilityConfig{LogLevel: "info", LogFormat: "xml"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Environment = tt.environment
			cfg.Observability = tt.obs

			logger, err := initLogger(cfg)
			if tt.wantErr != "" {
				assert.Nil(t, logger)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}

	t.Run("every level Validate accepts builds a logger", func(t *testing.T) {
		for _, level := range []string{"debug", "INFO", "Warn", "error", "fatal", "disabled", "DISABLED"} {
			cfg := config.Default()
			cfg.Observability.LogLevel = level
			require.NoError(t, cfg.Validate(), level)

			logger, err := initLogger(cfg)
			require.NoError(t, err, level)
			assert.NotNil(t, logger, level)
		}
	})

	t.Run("disabled logs nothing", func(t *testing.T) {
		cfg := config.Default()
		cfg.Observability = config.ObservabilityConfig{LogLevel: "Disabled"}

		logger, err := initLogger(cfg)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.FatalLevel))
	})

	t.Run("log path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "login-api.log")
		cfg := config.Default()
		cfg.Environment = "production"
		cfg.Observability = config.ObservabilityConfig{LogLevel: "info", LogPath: path}

		logger, err := initLogger(cfg)
		require.NoError(t, err)
		logger.Info("written to file")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"written to file"`)
	})
}

func TestRunHash(t *testing.T) {
	for _, scheme := range []string{"bcrypt", "argon2id"} {
		t.Run(scheme, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), []string{"hash", "--scheme", scheme}, strings.NewReader("wonderland\n"), &out)
			require.NoError(t, err)

			hash := strings.TrimSpace(out.String())
			path := filepath.Join(t.TempDir(), "credentials")
			require.NoError(t, os.WriteFile(path, []byte("alice:"+hash+"\n"), 0o600))

			v, err := identity.NewFileVerifier(path)
			require.NoError(t, err)
			ok, err := v.Verify(context.Background(), "alice", "wonderland")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}

	t.Run("unknown scheme", func(t *testing.T) {
		err := run(context.Background(), []string{"hash", "--scheme", "md5"}, strings.NewReader("pw\n"), &bytes.Buffer{})
		assert.ErrorIs(t, err, identity.ErrUnknownScheme)
	})
}

func TestRunGenSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared-secret.conf")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"gen-secret", "--length", "64", path}, nil, &out))
	assert.Contains(t, out.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = run(context.Background(), []string{"gen-secret", path}, nil, &bytes.Buffer{})
	assert.Error(t, err, "existing secrets are never overwritten")
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"frobnicate"}, nil, &out)
	assert.ErrorContains(t, err, `unknown command "frobnicate"`)
	assert.Contains(t, out.String(), "usage: login-api")
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "shared-secret.conf")
	require.NoError(t, os.WriteFile(secretPath, []byte("0123456789abcdef0123456789abcdef01234567"), 0o600))
	credentialsPath := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(credentialsPath, []byte("# empty\n"), 0o600))

	cfg := config.Default()
	cfg.Environment = "test"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Auth.SharedSecretPath = secretPath
	cfg.Auth.CredentialsFile = credentialsPath

	ctx, cancel := context.WithCancel(context.Background())
	deps, err := app.NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- serve(ctx, deps, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
