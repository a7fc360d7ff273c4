package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RANK_BATCH_SIZE", "")

	cfg := Load()
	if cfg.SessionName != "agora_session" {
		t.Errorf("Expected default session name, got %q", cfg.SessionName)
	}
	if cfg.RankFlushInterval != 500*time.Millisecond {
		t.Errorf("Expected 500ms flush interval, got %v", cfg.RankFlushInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PLACE_CACHE_TTL", "30s")
	t.Setenv("RANK_BATCH_SIZE", "10")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.PlaceCacheTTL != 30*time.Second {
		t.Errorf("Expected 30s ttl, got %v", cfg.PlaceCacheTTL)
	}
	if cfg.RankBatchSize != 10 {
		t.Errorf("Expected batch size 10, got %d", cfg.RankBatchSize)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("AGORA_URL", "http://agora.test")
	t.Setenv("AGORA_SESSION", "cookie-value")

	cfg := LoadClient()
	if cfg.ServerURL != "http://agora.test" || cfg.Session != "cookie-value" {
		t.Errorf("Unexpected client config: %+v", cfg)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected client log level to default to warn, got %q", cfg.LogLevel)
	}

	t.Setenv("AGORA_LOG_LEVEL", "debug")
	if cfg := LoadClient(); cfg.LogLevel != "debug" {
		t.Errorf("Expected client log level from env, got %q", cfg.LogLevel)
	}
}
