package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSecretKey signs invite tokens and CSRF tokens when SECRET_KEY is
// unset. It is public, so it is only accepted for local development.
const DefaultSecretKey = "dev-key"

// ErrDefaultSecretKey is returned by Validate when a non-local deployment
// runs with DefaultSecretKey.
var ErrDefaultSecretKey = errors.New("SECRET_KEY must be set when APP_BASE_URL is not localhost")

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SecretKey       string
	SessionDuration time.Duration
	InviteTTL       time.Duration
	AppBaseURL      string
	TrustProxy      bool

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	EmailDebug   bool

	// OAuth
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string

	LogLevel       string
	LogFormat      string
	MetricsEnabled bool

	// External statistics source used by the import utility
	F1APIBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:    getEnv("DB_PATH", "./f1fantasy.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SecretKey:       getEnv("SECRET_KEY", DefaultSecretKey),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		InviteTTL:       getEnvDuration("INVITE_TTL", 7*24*time.Hour),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "F1 Fantasy"),
		EmailDebug:   getEnvBool("EMAIL_DEBUG", false),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		F1APIBaseURL: strings.TrimRight(getEnv("F1_API_BASE_URL", "https://api.jolpi.ca/ergast/f1"), "/"),
	}
}

// UsesDefaultSecret reports whether SECRET_KEY was left unset
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

// Validate rejects settings that are only safe on a developer machine
func (c *Config) Validate() error {
	if c.UsesDefaultSecret() && !isLocalURL(c.AppBaseURL) {
		return ErrDefaultSecretKey
	}
	return nil
}

func isLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
