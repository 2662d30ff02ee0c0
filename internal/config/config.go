// Package config loads and validates pipeline configuration via Viper.
// Credentials come from the environment (optionally a .env file folded in by
// pkg/config); tunables may additionally come from an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob the pipeline reads at startup.
type Config struct {
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Convex    ConvexConfig    `mapstructure:"convex"`
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`
	Index     IndexConfig     `mapstructure:"index"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// GeminiConfig authenticates the File Search index client.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ConvexConfig locates and authenticates the metadata store deployment.
type ConvexConfig struct {
	URL            string `mapstructure:"url"`
	DeployKey      string `mapstructure:"deploy_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-call ceiling for metadata store requests.
func (c ConvexConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FirecrawlConfig configures the hosted scraping backend. An empty API key
// selects the headless browser backend instead.
type FirecrawlConfig struct {
	APIKey                string `mapstructure:"api_key"`
	BaseURL               string `mapstructure:"base_url"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
	RequestSpacingSeconds int    `mapstructure:"request_spacing_seconds"`
}

// Timeout returns the per-call ceiling for hosted scrape requests.
func (c FirecrawlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RequestSpacing returns the minimum interval between hosted scrape calls.
func (c FirecrawlConfig) RequestSpacing() time.Duration {
	return time.Duration(c.RequestSpacingSeconds) * time.Second
}

// IndexConfig names the file search store documents are published into.
type IndexConfig struct {
	StoreDisplayName     string `mapstructure:"store_display_name"`
	UploadTimeoutSeconds int    `mapstructure:"upload_timeout_seconds"`
}

// UploadTimeout returns the per-call ceiling for index uploads.
func (c IndexConfig) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// ScrapeConfig governs the headless browser backend.
type ScrapeConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
}

// NavTimeout returns the navigation ceiling per rendered fetch.
func (c ScrapeConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSeconds) * time.Second
}

// OpsConfig controls the optional operations HTTP server that exposes
// healthz, metrics and the progress snapshot while a sync runs.
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from the given Viper instance. Credentials are not
// checked here; commands that talk to the metadata store or the index call
// Validate before doing so, commands that never do (list, check) skip it.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.checkLimits(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("convex.timeout_seconds", 30)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.timeout_seconds", 60)
	// The Firecrawl free tier allows 10 scrapes per minute.
	v.SetDefault("firecrawl.request_spacing_seconds", 6)
	v.SetDefault("index.store_display_name", "Milwaukee Planning Documents")
	v.SetDefault("index.upload_timeout_seconds", 120)
	v.SetDefault("scrape.nav_timeout_seconds", 60)
	v.SetDefault("ops.enabled", false)
	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("logging.development", true)
}

// bindEnv wires the exact credential variable names the deployment already
// uses, fallbacks included, plus PLANNING_SYNC_-prefixed overrides for every
// tunable (e.g. PLANNING_SYNC_OPS_ENABLED).
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("PLANNING_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY")
	_ = v.BindEnv("convex.url", "CONVEX_URL", "NEXT_PUBLIC_CONVEX_URL")
	_ = v.BindEnv("convex.deploy_key", "CONVEX_DEPLOY_KEY")
	_ = v.BindEnv("firecrawl.api_key", "FIRECRAWL_API_KEY")
}

// checkLimits enforces sane tunables regardless of credentials.
func (c Config) checkLimits() error {
	if c.Convex.TimeoutSeconds <= 0 {
		return fmt.Errorf("convex.timeout_seconds must be > 0")
	}
	if c.Firecrawl.TimeoutSeconds <= 0 {
		return fmt.Errorf("firecrawl.timeout_seconds must be > 0")
	}
	if c.Firecrawl.RequestSpacingSeconds < 0 {
		return fmt.Errorf("firecrawl.request_spacing_seconds must be >= 0")
	}
	if c.Index.UploadTimeoutSeconds <= 0 {
		return fmt.Errorf("index.upload_timeout_seconds must be > 0")
	}
	if c.Scrape.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.nav_timeout_seconds must be > 0")
	}
	if c.Ops.Enabled && c.Ops.Addr == "" {
		return fmt.Errorf("ops.addr must be set when ops.enabled is true")
	}
	return nil
}

// Validate enforces the credentials a sync run needs. Missing ones are a
// single fatal configuration error, reported before any source is touched.
func (c Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY or GOOGLE_GEMINI_API_KEY is required")
	}
	if c.Convex.URL == "" {
		return fmt.Errorf("CONVEX_URL or NEXT_PUBLIC_CONVEX_URL is required")
	}
	if c.Convex.DeployKey == "" {
		return fmt.Errorf("CONVEX_DEPLOY_KEY is required")
	}
	return nil
}

// UseFirecrawl reports whether the hosted scraping backend is configured.
func (c Config) UseFirecrawl() bool {
	return c.Firecrawl.APIKey != ""
}
