package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BFFConfig holds the backend-for-frontend connection settings.
type BFFConfig struct {
	// BaseURL is normalized by the client: trailing slashes and a trailing
	// /api segment are stripped to avoid double-prefixing endpoint paths.
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`      // inline bearer token; TokenFile wins when both are set
	TokenFile string `yaml:"token_file"` // file containing the bearer token
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// PlatformConfig holds the data-platform connection settings. An empty
// base URL falls back to the BFF base URL (the common single-host setup).
type PlatformConfig struct {
	BaseURL  string `yaml:"base_url"`
	QueryTTL string `yaml:"query_ttl"` // Go duration; empty disables list caching
}

// ArchiveConfig holds the optional local transcript archive settings.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // sqlite database path
}

// TUIConfig holds terminal front-end settings.
type TUIConfig struct {
	Markdown     bool   `yaml:"markdown"`      // render assistant messages with glamour
	DocumentPath string `yaml:"document_path"` // document loaded into the editor pane
	PlaybookID   string `yaml:"playbook_id"`
}

// Config is the top-level application configuration.
type Config struct {
	BFF      BFFConfig      `yaml:"bff"`
	Platform PlatformConfig `yaml:"platform"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Archive  ArchiveConfig  `yaml:"archive"`
	TUI      TUIConfig      `yaml:"tui"`
}

// Defaults returns a configuration with sensible defaults.
func Defaults() *Config {
	return &Config{
		BFF: BFFConfig{
			BaseURL: "http://localhost:8080",
		},
		Platform: PlatformConfig{
			QueryTTL: "30s",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    defaultArchivePath(),
		},
		TUI: TUIConfig{
			Markdown: true,
		},
	}
}

func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lexbridge.db"
	}
	return filepath.Join(home, ".lexbridge", "transcripts.db")
}

// Load reads the YAML file at path, expands ${ENV} references, and overlays
// it on Defaults(). A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BearerToken resolves the bearer token, preferring TokenFile over the
// inline Token value.
func (c *BFFConfig) BearerToken() (string, error) {
	if c.TokenFile != "" {
		data, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return c.Token, nil
}

// ResolveBaseURL returns the platform base URL, falling back to bffBase.
func (c *PlatformConfig) ResolveBaseURL(bffBase string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return bffBase
}

// TTL parses the query cache TTL; empty means caching disabled.
func (c *PlatformConfig) TTL() (time.Duration, error) {
	if c.QueryTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.QueryTTL)
	if err != nil {
		return 0, fmt.Errorf("platform.query_ttl: %w", err)
	}
	return d, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.BFF.BaseURL == "" {
		return fmt.Errorf("bff.base_url must not be empty")
	}
	switch strings.ToLower(c.Logger.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logger.level: unknown level %q", c.Logger.Level)
	}
	switch strings.ToLower(c.Logger.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logger.format: unknown format %q", c.Logger.Format)
	}
	switch c.Tracer.Exporter {
	case "", "stdout", "noop":
	default:
		return fmt.Errorf("tracer.exporter: unsupported exporter %q", c.Tracer.Exporter)
	}
	if _, err := c.Platform.TTL(); err != nil {
		return err
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path must be set when archive.enabled is true")
	}
	return nil
}
