package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CALTRACK_DB", "CALTRACK_LOG_LEVEL", "CALTRACK_ADDR", "CALTRACK_SEARCH_TTL",
		"CALTRACK_CORS_ORIGINS", "CALTRACK_CACHE_PURGE", "EDAMAM_APP_ID", "EDAMAM_APP_KEY",
		"EDAMAM_BASE_URL", "EDAMAM_TIMEOUT", "AWS_REGION",
		"USDA_API_KEY", "USDA_BASE_URL", "UPCITEMDB_API_KEY", "UPCITEMDB_KEY_TYPE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWithoutEnvFile(t *testing.T) {
	clearEnv(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg, err := Load(zap.New(core), filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Edamam.BaseURL != DefaultEdamamBaseURL || cfg.Server.Addr != DefaultAddr {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Edamam.Timeout != 12*time.Second || cfg.SearchCacheTTL != DefaultSearchTTL {
		t.Fatalf("unexpected duration defaults: %+v", cfg)
	}
	if cfg.EdamamConfigured() || cfg.USDAConfigured() {
		t.Fatalf("expected edamam and usda to be unconfigured")
	}
	if cfg.UPCItemDB.APIKeyType != "3scale" {
		t.Fatalf("expected default upcitemdb key type, got %q", cfg.UPCItemDB.APIKeyType)
	}
	if logs.FilterMessageSnippet("no .env file").Len() != 1 {
		t.Fatalf("expected missing .env warning, got %v", logs.All())
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"EDAMAM_APP_ID=abc",
		"EDAMAM_APP_KEY=def",
		"CALTRACK_SEARCH_TTL=1h",
		"USDA_API_KEY=fdc-key",
		"CALTRACK_CORS_ORIGINS=http://a.test, http://b.test",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv never overrides variables that are already set, even empty ones.
	for _, key := range []string{"EDAMAM_APP_ID", "EDAMAM_APP_KEY", "CALTRACK_SEARCH_TTL", "USDA_API_KEY", "CALTRACK_CORS_ORIGINS"} {
		os.Unsetenv(key)
	}

	cfg, err := Load(zap.NewNop(), path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.EdamamConfigured() || cfg.Edamam.AppID != "abc" {
		t.Fatalf("expected edamam credentials from env file, got %+v", cfg.Edamam)
	}
	if !cfg.USDAConfigured() || cfg.USDA.APIKey != "fdc-key" {
		t.Fatalf("expected usda key from env file, got %+v", cfg.USDA)
	}
	if cfg.SearchCacheTTL != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", cfg.SearchCacheTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":   {"CALTRACK_SEARCH_TTL": "soon"},
		"relative url":   {"EDAMAM_BASE_URL": "api.edamam.com"},
		"id without key": {"EDAMAM_APP_ID": "abc"},
		"negative ttl":   {"CALTRACK_SEARCH_TTL": "-1h"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(zap.NewNop(), filepath.Join(t.TempDir(), "none.env")); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
