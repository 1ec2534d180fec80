package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile   = "config.yaml"
	DefaultEnvFile      = ".env"
	DefaultBackendURL   = "http://localhost:5000"
	DefaultDigestPath   = "/api/news"
	DefaultSource       = "rest"
	DefaultLimit        = 8
	DefaultTimeout      = 2 * time.Second
	DefaultCacheTTL     = 2 * time.Minute
	DefaultRefreshEvery = 5 * time.Minute
	DefaultStoragePath  = ".abhaya/abhaya.db"
	DefaultRetainDays   = 30
	DefaultListen       = ":3000"
	DefaultRefreshRate  = 1.0 / 10 // manual refreshes per second
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Ticker  TickerConfig  `yaml:"ticker"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	URL        string `yaml:"url"`
	DigestPath string `yaml:"digest_path"`
}

// DigestURL is the full endpoint the REST fetcher polls.
func (b BackendConfig) DigestURL() string {
	return strings.TrimRight(b.URL, "/") + "/" + strings.TrimLeft(b.DigestPath, "/")
}

type TickerConfig struct {
	Source       string   `yaml:"source"`
	FeedURL      string   `yaml:"feed_url"`
	Limit        int      `yaml:"limit"`
	Timeout      Duration `yaml:"timeout"`
	CacheTTL     Duration `yaml:"cache_ttl"`
	RefreshEvery Duration `yaml:"refresh_every"`
	// Preload starts a speculative fetch at bootstrap. Defaults to true.
	Preload *bool `yaml:"preload"`
}

// PreloadEnabled reports the effective preload setting.
func (t TickerConfig) PreloadEnabled() bool {
	return t.Preload == nil || *t.Preload
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	RetainDays int    `yaml:"retain_days"`
	Disabled   bool   `yaml:"disabled"`
}

type ServerConfig struct {
	Listen      string   `yaml:"listen"`
	RefreshRate float64  `yaml:"refresh_rate"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config.yaml from dir, applies defaults and environment
// overrides, and validates. A missing config.yaml is not an error: the
// ticker runs on defaults. A .env file in dir or the working directory is
// loaded first; variables already set in the environment win.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	_ = godotenv.Load(filepath.Join(dir, DefaultEnvFile))
	_ = godotenv.Load(DefaultEnvFile)

	var cfg Config
	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	if err := resolveEnv(&cfg); err != nil {
		return nil, fmt.Errorf("resolve env: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = DefaultBackendURL
	}
	if cfg.Backend.DigestPath == "" {
		cfg.Backend.DigestPath = DefaultDigestPath
	}
	if cfg.Ticker.Source == "" {
		cfg.Ticker.Source = DefaultSource
	}
	if cfg.Ticker.Limit == 0 {
		cfg.Ticker.Limit = DefaultLimit
	}
	if cfg.Ticker.Timeout.Duration == 0 {
		cfg.Ticker.Timeout.Duration = DefaultTimeout
	}
	if cfg.Ticker.CacheTTL.Duration == 0 {
		cfg.Ticker.CacheTTL.Duration = DefaultCacheTTL
	}
	if cfg.Ticker.RefreshEvery.Duration == 0 {
		cfg.Ticker.RefreshEvery.Duration = DefaultRefreshEvery
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.RetainDays == 0 {
		cfg.Storage.RetainDays = DefaultRetainDays
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.RefreshRate == 0 {
		cfg.Server.RefreshRate = DefaultRefreshRate
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// resolveEnv applies environment overrides. The ABHAYA_ names win over the
// bare ones shared with the portal's other processes.
func resolveEnv(cfg *Config) error {
	if v := firstEnv("ABHAYA_BACKEND_URL", "BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("ABHAYA_LISTEN"); v != "" {
		cfg.Server.Listen = v
	} else if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT: %q is not a number", port)
		}
		cfg.Server.Listen = ":" + port
	}
	if v := os.Getenv("ABHAYA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func validate(cfg *Config) error {
	if err := validateHTTPURL(cfg.Backend.URL); err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}

	switch cfg.Ticker.Source {
	case "rest":
	case "rss":
		if err := validateHTTPURL(cfg.Ticker.FeedURL); err != nil {
			return fmt.Errorf("ticker.feed_url: %w", err)
		}
	default:
		return fmt.Errorf("ticker.source: unknown source %q (want rest or rss)", cfg.Ticker.Source)
	}

	if cfg.Ticker.Limit < 0 {
		return errors.New("ticker.limit: must not be negative")
	}
	if cfg.Ticker.Timeout.Duration < 0 {
		return errors.New("ticker.timeout: must not be negative")
	}
	if cfg.Ticker.CacheTTL.Duration < 0 {
		return errors.New("ticker.cache_ttl: must not be negative")
	}
	if cfg.Ticker.RefreshEvery.Duration < time.Second {
		return fmt.Errorf("ticker.refresh_every: %v is below 1s", cfg.Ticker.RefreshEvery.Duration)
	}
	if cfg.Storage.RetainDays < 0 {
		return errors.New("storage.retain_days: must not be negative")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	if cfg.Server.RefreshRate < 0 {
		return errors.New("server.refresh_rate: must not be negative")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q (want json or console)", cfg.Log.Format)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: host is required", raw)
	}
	return nil
}
