package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BFF.BaseURL)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.TUI.Markdown)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
bff:
  base_url: https://legal.example.com/api
logger:
  level: debug
  format: json
tracer:
  enabled: true
  exporter: stdout
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://legal.example.com/api", cfg.BFF.BaseURL)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Tracer.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, "stderr", cfg.Logger.Output)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("LEXBRIDGE_TOKEN", "secret-token")
	path := writeConfig(t, `
bff:
  base_url: http://localhost:9000
  token: ${LEXBRIDGE_TOKEN}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.BFF.Token)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "bff: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty base url", func(c *Config) { c.BFF.BaseURL = "" }, "base_url"},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, "level"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "format"},
		{"bad exporter", func(c *Config) { c.Tracer.Exporter = "jaeger" }, "exporter"},
		{"archive without path", func(c *Config) { c.Archive.Enabled = true; c.Archive.Path = "" }, "archive.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}

func TestBearerTokenPrefersFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	cfg := BFFConfig{Token: "inline-token", TokenFile: tokenFile}
	token, err := cfg.BearerToken()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token, "file wins and whitespace is trimmed")
}

func TestBearerTokenInline(t *testing.T) {
	cfg := BFFConfig{Token: "inline-token"}
	token, err := cfg.BearerToken()
	require.NoError(t, err)
	assert.Equal(t, "inline-token", token)
}

func TestBearerTokenMissingFile(t *testing.T) {
	cfg := BFFConfig{TokenFile: filepath.Join(t.TempDir(), "absent")}
	_, err := cfg.BearerToken()
	assert.Error(t, err)
}
