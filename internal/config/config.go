// Package config loads and validates the feedrelay YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// PostsBaseURL is the base URL of the remote feed API
	// (e.g. "https://api.slingacademy.com").
	PostsBaseURL string `yaml:"posts_base_url"`

	// UsersBaseURL is the base URL of the remote user-lookup API
	// (e.g. "https://dummyjson.com").
	UsersBaseURL string `yaml:"users_base_url"`

	// PageSize is the number of posts fetched per page. 1–100, defaults to 20.
	PageSize int `yaml:"page_size"`

	// InitialOffset is the offset of the first feed page. Defaults to 1.
	InitialOffset int `yaml:"initial_offset"`

	// CurrentUserID identifies the acting user for like toggles and local
	// comments. Defaults to 1.
	CurrentUserID int `yaml:"current_user_id"`

	// CachePath overrides the default location of the SQLite cache
	// (~/.local/share/feedrelay/cache.db).
	CachePath string `yaml:"cache_path,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "feedrelay".
	ServiceName string `yaml:"service_name"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request, e.g. Authorization: "Bearer <token>".
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultPath returns the default config file path: ~/.config/feedrelay/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "feedrelay", "config.yaml"), nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	// InitialOffset is pre-seeded so an explicit "initial_offset: 0" survives
	// decoding; the other defaults are applied in validate.
	cfg := Config{InitialOffset: 1}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Write marshals the configuration to YAML at the given path, creating
// parent directories as needed.
func (c *Config) Write(path string) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("refusing to write invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

// validate checks that all required fields are present and well-formed.
func (c *Config) validate() error {
	if err := validateBaseURL("posts_base_url", c.PostsBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("users_base_url", c.UsersBaseURL); err != nil {
		return err
	}

	if c.PageSize == 0 {
		c.PageSize = 20
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size %d is out of range (1–100)", c.PageSize)
	}

	if c.InitialOffset < 0 {
		return fmt.Errorf("initial_offset %d must not be negative", c.InitialOffset)
	}

	if c.CurrentUserID == 0 {
		c.CurrentUserID = 1
	}
	if c.CurrentUserID < 0 {
		return fmt.Errorf("current_user_id %d must be positive", c.CurrentUserID)
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}

func validateBaseURL(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s %q must be a valid http or https URL", field, value)
	}
	return nil
}
