package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the YAML config path
const ConfigPathEnv = "LOGIN_API_CONFIG"

// legacyEnvPrefix is honoured as a fallback for every environment key
const legacyEnvPrefix = "FLIGHT_LOGIN_"

// Directory kinds
const (
	DirectorySystem = "system"
	DirectoryFile   = "file"
)

// Verifier kinds
const (
	VerifierFile = "file"
	VerifierPAM  = "pam"
)

// CrossOriginAny allows every origin
const CrossOriginAny = "any"

// MaxTokenExpiryDays bounds the token lifetime
const MaxTokenExpiryDays = 3650

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Session       SessionConfig       `yaml:"session"`
	CORS          CORSConfig          `yaml:"cors"`
	Observability ObservabilityConfig `yaml:"observability"`
	Environment   string              `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig holds the certificate used when the server terminates TLS itself
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig selects the credential verifier and principal directory and
// locates the token signing secret.
type AuthConfig struct {
	Verifier         string `yaml:"verifier"` // file or pam
	CredentialsFile  string `yaml:"credentials_file"`
	PAMService       string `yaml:"pam_service"`
	Directory        string `yaml:"directory"`
	SharedSecretPath string `yaml:"shared_secret_path"`
}

// SessionConfig holds token and cookie parameters
type SessionConfig struct {
	TokenExpiryDays int    `yaml:"token_expiry"`
	Issuer          string `yaml:"issuer"`
	CookieName      string `yaml:"sso_cookie_name"`
	// CookieDomain pins the cookie Domain attribute. Empty derives it
	// from the request host.
	CookieDomain string `yaml:"sso_cookie_domain"`
}

// CORSConfig holds cross-origin settings. An empty Domain disables CORS.
type CORSConfig struct {
	Domain string `yaml:"cross_origin_domain"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or console. Empty picks console in development
	// and json elsewhere.
	LogFormat string `yaml:"log_format"`
	// LogPath is a file to log to. Empty logs to stdout.
	LogPath string `yaml:"log_path"`
}

// Options controls where configuration is read from
type Options struct {
	// EnvFile is a dotenv file to load. When empty, .env is loaded if present.
	EnvFile string
	// ConfigFile is a YAML file. When empty, LOGIN_API_CONFIG is consulted.
	ConfigFile string
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            922,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Verifier:         VerifierFile,
			CredentialsFile:  "etc/credentials",
			PAMService:       "sshd",
			Directory:        DirectoryFile,
			SharedSecretPath: "etc/shared-secret.conf",
		},
		Session: SessionConfig{
			TokenExpiryDays: 7,
			Issuer:          "login-api",
			CookieName:      "flight_login",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

// New creates a new Config instance. Sources are applied in order:
// defaults, the YAML file, then environment variables (including those
// loaded from the dotenv file).
func New(ctx context.Context, opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load(".env")
	}

	cfg := Default()

	path := opts.ConfigFile
	if path == "" {
		path, _ = lookupEnv(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile merges a YAML file into the configuration
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnv overrides the configuration with environment variables. Unset
// variables keep the current value.
func (c *Config) applyEnv() error {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	if bind, ok := lookupEnv("BIND_ADDRESS"); ok {
		host, port, err := ParseBindAddress(bind)
		if err != nil {
			return err
		}
		c.Server.Host, c.Server.Port = host, port
	}
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", c.Server.Port))
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.TLS.Enabled = getEnvAsBool("TLS_ENABLED", c.Server.TLS.Enabled)
	c.Server.TLS.CertFile = getEnv("TLS_CERT_FILE", c.Server.TLS.CertFile)
	c.Server.TLS.KeyFile = getEnv("TLS_KEY_FILE", c.Server.TLS.KeyFile)

	c.Auth.Verifier = getEnv("VERIFIER", c.Auth.Verifier)
	c.Auth.CredentialsFile = getEnv("CREDENTIALS_FILE", c.Auth.CredentialsFile)
	c.Auth.PAMService = getEnv("PAM_SERVICE", c.Auth.PAMService)
	c.Auth.Directory = getEnv("DIRECTORY", c.Auth.Directory)
	c.Auth.SharedSecretPath = getEnv("SHARED_SECRET_PATH", c.Auth.SharedSecretPath)

	expiry, err := getEnvAsStrictInt("TOKEN_EXPIRY", c.Session.TokenExpiryDays)
	if err != nil {
		return err
	}
	c.Session.TokenExpiryDays = expiry
	c.Session.Issuer = getEnv("ISSUER", c.Session.Issuer)
	c.Session.CookieName = getEnv("SSO_COOKIE_NAME", c.Session.CookieName)
	c.Session.CookieDomain = getEnv("SSO_COOKIE_DOMAIN", c.Session.CookieDomain)

	c.CORS.Domain = getEnv("CROSS_ORIGIN_DOMAIN", c.CORS.Domain)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.LogPath = getEnv("LOG_PATH", c.Observability.LogPath)

	return nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return errors.New("tls cert and key files are required when TLS is enabled")
	}

	switch c.Auth.Directory {
	case DirectorySystem, DirectoryFile:
	default:
		return fmt.Errorf("unknown directory %q: expected %s or %s", c.Auth.Directory, DirectorySystem, DirectoryFile)
	}
	switch c.Auth.Verifier {
	case VerifierFile:
		if c.Auth.CredentialsFile == "" {
			return errors.New("credentials file is required")
		}
	case VerifierPAM:
		if c.Auth.PAMService == "" {
			return errors.New("pam service is required")
		}
		// host accounts have no credentials file to read names from
		if c.Auth.Directory != DirectorySystem {
			return fmt.Errorf("the pam verifier requires the %s directory", DirectorySystem)
		}
	default:
		return fmt.Errorf("unknown verifier %q: expected %s or %s", c.Auth.Verifier, VerifierFile, VerifierPAM)
	}
	if c.Auth.SharedSecretPath == "" {
		return errors.New("shared secret path is required")
	}

	if c.Session.TokenExpiryDays < 1 {
		return errors.New("token expiry must be at least one day")
	}
	if c.Session.TokenExpiryDays > MaxTokenExpiryDays {
		return fmt.Errorf("token expiry must be at most %d days", MaxTokenExpiryDays)
	}
	if c.Session.Issuer == "" {
		return errors.New("issuer is required")
	}
	if c.Session.CookieName == "" {
		return errors.New("sso cookie name is required")
	}

	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "error", "fatal", "disabled":
	case "":
		return errors.New("log level is required")
	default:
		return fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
	}
	switch c.Observability.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q: expected json or console", c.Observability.LogFormat)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseBindAddress splits a bind address such as "tcp://127.0.0.1:922" or
// "0.0.0.0:8080" into host and port.
func ParseBindAddress(bind string) (string, int, error) {
	addr := bind
	if scheme, rest, ok := strings.Cut(bind, "://"); ok {
		if scheme != "tcp" {
			return "", 0, fmt.Errorf("bind address %q: unsupported scheme %q", bind, scheme)
		}
		addr = rest
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("bind address %q: %w", bind, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("bind address %q: invalid port", bind)
	}
	return host, port, nil
}

// Helper functions

// lookupEnv returns the value of key, falling back to its legacy
// FLIGHT_LOGIN_ name. Empty values count as unset.
func lookupEnv(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value := os.Getenv(legacyEnvPrefix + key); value != "" {
		return value, true
	}
	return "", false
}

func getEnv(key, defaultValue string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStrictInt is getEnvAsInt for values where a typo must not
// silently become the default.
func getEnvAsStrictInt(key string, defaultValue int) (int, error) {
	valueStr, ok := lookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
