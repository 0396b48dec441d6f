package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const minSigningKeyBytes = 32

// Config holds all configuration for the notes MCP service
type Config struct {
	// HTTP Server - using NOTES_ prefix to avoid collisions
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"notes-mcp"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        string        `env:"NOTES_HTTP_PORT" envDefault:"8092"`
	LogLevel        string        `env:"NOTES_LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"NOTES_LOG_FORMAT" envDefault:"json"` // json or console
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8092"`

	// Identity provider (authorization-code flow)
	OAuthClientID     string   `env:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"OAUTH_CLIENT_SECRET"`
	OAuthRedirectURI  string   `env:"OAUTH_REDIRECT_URI"`
	OAuthAuthURL      string   `env:"OAUTH_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	OAuthTokenURL     string   `env:"OAUTH_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	OAuthUserInfoURL  string   `env:"OAUTH_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v2/userinfo"`
	OAuthScopes       []string `env:"OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	HostedDomain      string   `env:"HOSTED_DOMAIN"` // comma separated allowlist, empty allows every domain

	// Grants minted for MCP clients
	GrantSigningKey         string        `env:"GRANT_SIGNING_KEY"`
	GrantIssuer             string        `env:"GRANT_ISSUER" envDefault:"notes-mcp"`
	GrantAccessTTL          time.Duration `env:"GRANT_ACCESS_TTL" envDefault:"1h"`
	GrantCodeTTL            time.Duration `env:"GRANT_CODE_TTL" envDefault:"5m"`
	ClientRedirectAllowlist []string      `env:"CLIENT_REDIRECT_ALLOWLIST" envSeparator:","`

	// Object storage
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3Region         string `env:"S3_REGION" envDefault:"auto"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle   bool   `env:"S3_USE_PATH_STYLE" envDefault:"true"`
	LocalStoragePath string `env:"LOCAL_STORAGE_PATH"`

	// Managed search and Workers AI
	CloudflareAccountID  string        `env:"CLOUDFLARE_ACCOUNT_ID"`
	CloudflareAPIToken   string        `env:"CLOUDFLARE_API_TOKEN"`
	CloudflareAPIBaseURL string        `env:"CLOUDFLARE_API_BASE_URL" envDefault:"https://api.cloudflare.com/client/v4"`
	AutoRAGName          string        `env:"AUTORAG_NAME"`
	ImageModel           string        `env:"IMAGE_MODEL" envDefault:"@cf/black-forest-labs/flux-1-schnell"`
	AIHTTPTimeout        time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"60s"`

	// Observability
	EnableTracing     bool    `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"otel-collector:4318"`
	TraceSamplingRate float64 `env:"TRACE_SAMPLING_RATE" envDefault:"1.0"`
	PIILevel          string  `env:"PII_LEVEL" envDefault:"hashed"`
}

// LoadEnvFiles overlays .env files found next to the binary; missing files are ignored.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(os.Getenv("NOTES_LOG_LEVEL")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_LEVEL")); global != "" {
			cfg.LogLevel = global
		}
	}
	if strings.TrimSpace(os.Getenv("NOTES_LOG_FORMAT")) == "" {
		if global := strings.TrimSpace(os.Getenv("LOG_FORMAT")); global != "" {
			cfg.LogFormat = global
		}
	}

	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if strings.TrimSpace(cfg.OAuthRedirectURI) == "" {
		cfg.OAuthRedirectURI = cfg.PublicBaseURL + "/callback"
	}
	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.CloudflareAPIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.CloudflareAPIBaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"OAUTH_CLIENT_ID", c.OAuthClientID},
		{"OAUTH_CLIENT_SECRET", c.OAuthClientSecret},
		{"GRANT_SIGNING_KEY", c.GrantSigningKey},
		{"CLOUDFLARE_ACCOUNT_ID", c.CloudflareAccountID},
		{"CLOUDFLARE_API_TOKEN", c.CloudflareAPIToken},
		{"AUTORAG_NAME", c.AutoRAGName},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			return fmt.Errorf("%s is required", item.name)
		}
	}

	if len(c.GrantSigningKey) < minSigningKeyBytes {
		return fmt.Errorf("GRANT_SIGNING_KEY must be at least %d bytes", minSigningKeyBytes)
	}
	if c.GrantAccessTTL <= 0 || c.GrantCodeTTL <= 0 {
		return fmt.Errorf("GRANT_ACCESS_TTL and GRANT_CODE_TTL must be positive")
	}

	switch {
	case c.IsLocalStorage():
		if strings.TrimSpace(c.LocalStoragePath) == "" {
			return fmt.Errorf("LOCAL_STORAGE_PATH is required when STORAGE_BACKEND is local")
		}
	case c.IsS3Storage():
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}

// AllowedDomains splits HOSTED_DOMAIN into normalised entries.
func (c *Config) AllowedDomains() []string {
	var domains []string
	for _, part := range strings.Split(c.HostedDomain, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			domains = append(domains, part)
		}
	}
	return domains
}
