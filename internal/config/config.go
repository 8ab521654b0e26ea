// Package config loads recipebox configuration from flags, environment variables, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/recipeboxapp/recipebox-server/internal/logger"
)

// Media backends.
const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Media    MediaConfig
	Server   ServerConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the root for the default database file, media, and key material.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds the store connection settings.
type DatabaseConfig struct {
	// URL is sqlite://path, a bare file path, or postgres://...
	URL string
}

// MediaConfig holds blob storage configuration for uploaded images.
type MediaConfig struct {
	Backend string
	Root    string // local backend root directory
	URL     string // public prefix for stored blobs
	S3      S3Config
}

// S3Config holds S3-compatible object store settings.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	KeyPath string
	// AccessTokenKey is filled in by the auth provider from KeyPath.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// TokenRateLimit is the number of token requests allowed per client IP per minute.
	TokenRateLimit int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("recipebox", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (pretty, text, json)")
	dataPath := fs.String("data-path", "", "Base path for local data")
	databaseURL := fs.String("database-url", "", "Database URL (sqlite://path or postgres://...)")

	mediaBackend := fs.String("media-backend", "", "Media backend (local, s3)")
	mediaRoot := fs.String("media-root", "", "Local media root directory")
	mediaURL := fs.String("media-url", "", "Public URL prefix for media")

	serverPort := fs.String("port", "", "Server port (default: 8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv.Load never overrides variables already present in the environment.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Database: DatabaseConfig{
			URL: getConfigValue(*databaseURL, "DATABASE_URL", ""),
		},
		Media: MediaConfig{
			Backend: getConfigValue(*mediaBackend, "MEDIA_BACKEND", MediaBackendLocal),
			Root:    getConfigValue(*mediaRoot, "MEDIA_ROOT", ""),
			URL:     getConfigValue(*mediaURL, "MEDIA_URL", "/media/"),
			S3: S3Config{
				Endpoint:  getConfigValue("", "S3_ENDPOINT", ""),
				Bucket:    getConfigValue("", "S3_BUCKET", ""),
				Region:    getConfigValue("", "S3_REGION", ""),
				AccessKey: getConfigValue("", "S3_ACCESS_KEY", ""),
				SecretKey: getConfigValue("", "S3_SECRET_KEY", ""),
				UseSSL:    getBoolConfigValue("", "S3_USE_SSL", true),
				PublicURL: getConfigValue("", "S3_PUBLIC_URL", ""),
			},
		},
		Server: ServerConfig{
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8000"),
			CORSAllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			KeyPath:        getConfigValue("", "AUTH_KEY_PATH", ""),
			TokenRateLimit: getIntConfigValue("", "TOKEN_RATE_LIMIT", 10),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Auth.AccessTokenDuration, err = parseDuration(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that config values are present and consistent.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	if !logger.ValidLevel(c.Logger.Level) {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", logger.FormatPretty, logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("invalid log format: %q", c.Logger.Format)
	}

	if c.Database.URL == "" {
		return errors.New("database url cannot be empty")
	}

	switch c.Media.Backend {
	case MediaBackendLocal:
		if c.Media.Root == "" {
			return errors.New("media root cannot be empty for the local backend")
		}
	case MediaBackendS3:
		s3 := c.Media.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.AccessKey == "" || s3.SecretKey == "" {
			return errors.New("s3 media backend requires S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY")
		}
	default:
		return fmt.Errorf("invalid media backend: %q (must be local or s3)", c.Media.Backend)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	return nil
}

// expandPaths fills path defaults beneath DataPath and makes them absolute.
func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(home, ".recipebox")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Media.Root, err = expandPath(c.Media.Root, filepath.Join(c.App.DataPath, "media")); err != nil {
		return fmt.Errorf("invalid media root: %w", err)
	}
	if c.Auth.KeyPath, err = expandPath(c.Auth.KeyPath, filepath.Join(c.App.DataPath, "keys", "access.key")); err != nil {
		return fmt.Errorf("invalid key path: %w", err)
	}
	if c.Database.URL == "" {
		c.Database.URL = "sqlite://" + filepath.Join(c.App.DataPath, "recipebox.db")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	v := getConfigValue(flagValue, envKey, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
