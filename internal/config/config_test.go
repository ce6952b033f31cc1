package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AITimeout != 20*time.Second {
		t.Fatalf("expected 20s AI timeout, got %s", cfg.AITimeout)
	}
	if cfg.AnalysisDelay != 100*time.Millisecond {
		t.Fatalf("expected 100ms analysis delay, got %s", cfg.AnalysisDelay)
	}
	if cfg.SettingsStore != "postgres" || cfg.AnalysisMode != "async" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("SETTINGS_CACHE_TTL", "0s")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AIProvider != "anthropic" || cfg.AIAPIKey != "sk-test" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.AITimeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.AITimeout)
	}
	if cfg.SettingsCacheTTL != 0 {
		t.Fatalf("expected cache disabled, got %s", cfg.SettingsCacheTTL)
	}
}

func TestLoadNormalizesNames(t *testing.T) {
	t.Setenv("SETTINGS_STORE", " Postgres ")
	t.Setenv("ANALYSIS_MODE", "SYNC")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SettingsStore != "postgres" || cfg.AnalysisMode != "sync" {
		t.Fatalf("expected lowercased names, got store=%q mode=%q", cfg.SettingsStore, cfg.AnalysisMode)
	}
}
