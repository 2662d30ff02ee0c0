package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Convex.Timeout(); got != 30*time.Second {
		t.Fatalf("expected convex timeout 30s, got %v", got)
	}
	if cfg.Firecrawl.BaseURL != "https://api.firecrawl.dev/v1" {
		t.Fatalf("unexpected firecrawl base url %q", cfg.Firecrawl.BaseURL)
	}
	if got := cfg.Firecrawl.RequestSpacing(); got != 6*time.Second {
		t.Fatalf("expected firecrawl spacing 6s, got %v", got)
	}
	if cfg.Index.StoreDisplayName != "Milwaukee Planning Documents" {
		t.Fatalf("unexpected store display name %q", cfg.Index.StoreDisplayName)
	}
	if got := cfg.Index.UploadTimeout(); got != 120*time.Second {
		t.Fatalf("expected upload timeout 120s, got %v", got)
	}
	if got := cfg.Scrape.NavTimeout(); got != 60*time.Second {
		t.Fatalf("expected nav timeout 60s, got %v", got)
	}
	if cfg.Ops.Enabled {
		t.Fatalf("expected ops server disabled by default")
	}
	if !cfg.Logging.Development {
		t.Fatalf("expected development logging by default")
	}
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("CONVEX_URL", "https://quiet-lemur-123.convex.cloud")
	t.Setenv("CONVEX_DEPLOY_KEY", "deploy-key")
	t.Setenv("FIRECRAWL_API_KEY", "fc-key")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Gemini.APIKey != "gem-key" {
		t.Fatalf("unexpected gemini key %q", cfg.Gemini.APIKey)
	}
	if cfg.Convex.URL != "https://quiet-lemur-123.convex.cloud" {
		t.Fatalf("unexpected convex url %q", cfg.Convex.URL)
	}
	if cfg.Convex.DeployKey != "deploy-key" {
		t.Fatalf("unexpected convex deploy key %q", cfg.Convex.DeployKey)
	}
	if !cfg.UseFirecrawl() {
		t.Fatalf("expected firecrawl backend when the key is set")
	}
}

func TestLoadCredentialFallbackNames(t *testing.T) {
	t.Setenv("GOOGLE_GEMINI_API_KEY", "gem-fallback")
	t.Setenv("NEXT_PUBLIC_CONVEX_URL", "https://public.convex.cloud")
	t.Setenv("CONVEX_DEPLOY_KEY", "deploy-key")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gemini.APIKey != "gem-fallback" {
		t.Fatalf("expected fallback gemini key, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Convex.URL != "https://public.convex.cloud" {
		t.Fatalf("expected fallback convex url, got %q", cfg.Convex.URL)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
convex:
  timeout_seconds: 10
firecrawl:
  base_url: https://firecrawl.internal/v1
  request_spacing_seconds: 2
index:
  store_display_name: Test Store
ops:
  enabled: true
  addr: "127.0.0.1:9191"
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Convex.Timeout(); got != 10*time.Second {
		t.Fatalf("expected convex timeout 10s, got %v", got)
	}
	if cfg.Firecrawl.BaseURL != "https://firecrawl.internal/v1" {
		t.Fatalf("unexpected firecrawl base url %q", cfg.Firecrawl.BaseURL)
	}
	if got := cfg.Firecrawl.RequestSpacing(); got != 2*time.Second {
		t.Fatalf("expected firecrawl spacing 2s, got %v", got)
	}
	if cfg.Index.StoreDisplayName != "Test Store" {
		t.Fatalf("unexpected store display name %q", cfg.Index.StoreDisplayName)
	}
	if !cfg.Ops.Enabled || cfg.Ops.Addr != "127.0.0.1:9191" {
		t.Fatalf("expected ops overrides to apply: %+v", cfg.Ops)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected logging.development overridden to false")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing gemini key",
			cfg: Config{
				Convex: ConvexConfig{URL: "https://x.convex.cloud", DeployKey: "k"},
			},
			want: "GEMINI_API_KEY",
		},
		{
			name: "missing convex url",
			cfg: Config{
				Gemini: GeminiConfig{APIKey: "g"},
				Convex: ConvexConfig{DeployKey: "k"},
			},
			want: "CONVEX_URL",
		},
		{
			name: "missing deploy key",
			cfg: Config{
				Gemini: GeminiConfig{APIKey: "g"},
				Convex: ConvexConfig{URL: "https://x.convex.cloud"},
			},
			want: "CONVEX_DEPLOY_KEY",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadLimitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "zero convex timeout", key: "convex.timeout_seconds", value: 0},
		{name: "negative firecrawl spacing", key: "firecrawl.request_spacing_seconds", value: -1},
		{name: "zero nav timeout", key: "scrape.nav_timeout_seconds", value: 0},
		{name: "zero upload timeout", key: "index.upload_timeout_seconds", value: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			v.Set(tt.key, tt.value)
			if _, err := Load(v); err == nil {
				t.Fatalf("expected limit error for %s", tt.key)
			}
		})
	}
}

func TestLoadOpsRequiresAddr(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("ops.enabled", true)
	v.Set("ops.addr", "")
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error when ops server enabled without addr")
	}
}
