// Package config loads settings for the timetable tools.
//
// Settings come from an optional YAML file, then from the
// environment (a .env file in the working directory is loaded if
// present). Environment values win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRefreshInterval = 1 * time.Minute
	DefaultDisplayInterval = 1 * time.Second
	DefaultFetchTimeout    = 30 * time.Second
	DefaultMaxDocumentSize = 1 << 20 // 1 MB
	DefaultTimezone        = "Europe/Malta"
)

type Config struct {
	// URL or local path of the timetable document.
	SourceURL string            `yaml:"source_url"`
	Headers   map[string]string `yaml:"headers"`

	// Timezone for documents that don't declare one.
	DefaultTimezone string `yaml:"default_timezone"`

	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DisplayInterval time.Duration `yaml:"display_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxDocumentSize int           `yaml:"max_document_size"`

	// Reject documents not served as application/json.
	RequireJSON bool `yaml:"require_json"`

	Storage StorageConfig `yaml:"storage"`

	// Listen address for /metrics, e.g. ":9102". Empty disables.
	MetricsAddr string `yaml:"metrics_addr"`
}

type StorageConfig struct {
	// memory, sqlite or postgres.
	Backend string `yaml:"backend"`

	// Directory of the sqlite database. Empty keeps it in memory.
	Directory string `yaml:"directory"`

	PostgresURL string `yaml:"postgres_url"`
}

func Default() *Config {
	return &Config{
		Headers:         map[string]string{},
		DefaultTimezone: DefaultTimezone,
		RefreshInterval: DefaultRefreshInterval,
		DisplayInterval: DefaultDisplayInterval,
		FetchTimeout:    DefaultFetchTimeout,
		MaxDocumentSize: DefaultMaxDocumentSize,
		Storage:         StorageConfig{Backend: "memory"},
	}
}

// Loads configuration. path may be empty, in which case only
// defaults and environment apply.
func Load(path string) (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TIMETABLE_URL"); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv("TIMETABLE_DEFAULT_TZ"); v != "" {
		c.DefaultTimezone = v
	}
	if v := os.Getenv("TIMETABLE_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TIMETABLE_STORAGE_DIR"); v != "" {
		c.Storage.Directory = v
	}
	if v := firstNonEmpty(os.Getenv("TIMETABLE_POSTGRES_URL"), os.Getenv("DATABASE_URL")); v != "" {
		c.Storage.PostgresURL = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}

	for env, dst := range map[string]*time.Duration{
		"TIMETABLE_REFRESH_INTERVAL": &c.RefreshInterval,
		"TIMETABLE_DISPLAY_INTERVAL": &c.DisplayInterval,
		"TIMETABLE_FETCH_TIMEOUT":    &c.FetchTimeout,
		"TIMETABLE_CACHE_TTL":        &c.CacheTTL,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", env, v)
		}
		*dst = d
	}

	return nil
}

func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}
	if c.DisplayInterval <= 0 {
		return fmt.Errorf("display_interval must be positive")
	}
	if c.FetchTimeout < 0 || c.CacheTTL < 0 || c.MaxDocumentSize < 0 {
		return fmt.Errorf("fetch_timeout, cache_ttl and max_document_size must not be negative")
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "", "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres storage requires postgres_url or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
