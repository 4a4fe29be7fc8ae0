// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Server       ServerConfig
	Verification VerificationConfig
	Database     DatabaseConfig
	Auth         AuthConfig
}

type ServerConfig struct {
	Port string
	Host string
}

// VerificationConfig configures the remote verification call. An empty
// APIURL selects the service's built-in endpoint.
type VerificationConfig struct {
	APIURL           string
	APITimeout       time.Duration
	BatchConcurrency int
	BatchMaxItems    int
}

// DatabaseConfig configures the verification audit log. An empty URI
// disables it.
type DatabaseConfig struct {
	URI      string
	Database string
}

func (d DatabaseConfig) Enabled() bool {
	return d.URI != ""
}

// AuthConfig configures bearer token checks on the API. An empty IssuerURL
// disables them.
type AuthConfig struct {
	IssuerURL string
	JWKSURI   string
}

func (a AuthConfig) Enabled() bool {
	return a.IssuerURL != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	config := &Config{
		Env: os.Getenv("ENV"),
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
			Host: getEnvOrDefault("HOST", "0.0.0.0"),
		},
		Verification: VerificationConfig{
			APIURL:           os.Getenv("HCERT_VERIFY_API_URL"),
			APITimeout:       time.Duration(getEnvAsInt("HCERT_VERIFY_API_TIMEOUT_SECONDS", 30)) * time.Second,
			BatchConcurrency: getEnvAsInt("HCERT_BATCH_CONCURRENCY", 8),
			BatchMaxItems:    getEnvAsInt("HCERT_BATCH_MAX_ITEMS", 50),
		},
		Database: DatabaseConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: getEnvOrDefault("MONGODB_DATABASE", "hcert"),
		},
		Auth: AuthConfig{
			IssuerURL: strings.TrimSuffix(os.Getenv("AUTH_ISSUER_URL"), "/"),
			JWKSURI:   os.Getenv("AUTH_JWKS_URI"),
		},
	}

	if config.Auth.Enabled() && config.Auth.JWKSURI == "" {
		config.Auth.JWKSURI = config.Auth.IssuerURL + "/.well-known/jwks.json"
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Verification.APIURL != "" {
		if err := validateHTTPURL(c.Verification.APIURL); err != nil {
			return fmt.Errorf("HCERT_VERIFY_API_URL: %w", err)
		}
	}
	if c.Verification.APITimeout <= 0 {
		return fmt.Errorf("HCERT_VERIFY_API_TIMEOUT_SECONDS must be positive")
	}
	if c.Verification.BatchConcurrency <= 0 {
		return fmt.Errorf("HCERT_BATCH_CONCURRENCY must be positive")
	}
	if c.Verification.BatchMaxItems <= 0 {
		return fmt.Errorf("HCERT_BATCH_MAX_ITEMS must be positive")
	}
	if c.Auth.Enabled() {
		if err := validateHTTPURL(c.Auth.JWKSURI); err != nil {
			return fmt.Errorf("AUTH_JWKS_URI: %w", err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns defaultValue when the variable is unset. A value that
// is set but not an integer yields -1 so that validation rejects it.
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return intValue
}
