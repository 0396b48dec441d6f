package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OAUTH_CLIENT_ID", "client")
	t.Setenv("OAUTH_CLIENT_SECRET", "secret")
	t.Setenv("GRANT_SIGNING_KEY", strings.Repeat("k", 32))
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("CLOUDFLARE_API_TOKEN", "token")
	t.Setenv("AUTORAG_NAME", "notes")
	t.Setenv("S3_BUCKET", "notes-bucket")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8092", cfg.HTTPPort)
	assert.Equal(t, ":8092", cfg.Addr())
	assert.Equal(t, "http://localhost:8092/callback", cfg.OAuthRedirectURI)
	assert.Equal(t, time.Hour, cfg.GrantAccessTTL)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.OAuthScopes)
	assert.True(t, cfg.IsS3Storage())
	assert.Empty(t, cfg.AllowedDomains())
}

func TestLoadConfigGlobalLogFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLOUDFLARE_API_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLOUDFLARE_API_TOKEN")
}

func TestLoadConfigShortSigningKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GRANT_SIGNING_KEY", "short")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRANT_SIGNING_KEY")
}

func TestLoadConfigLocalStorage(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_BACKEND", "local")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("LOCAL_STORAGE_PATH", t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsLocalStorage())
}

func TestAllowedDomains(t *testing.T) {
	cfg := &Config{HostedDomain: " Example.com, ,corp.io "}
	assert.Equal(t, []string{"example.com", "corp.io"}, cfg.AllowedDomains())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NOTES_TEST_FROM_FILE=yes\n"), 0o600))
	t.Setenv("NOTES_TEST_FROM_FILE", "")

	LoadEnvFiles(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, "yes", os.Getenv("NOTES_TEST_FROM_FILE"))
}
