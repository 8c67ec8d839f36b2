package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mathbot/internal/platform/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected api base: %s", cfg.APIBase)
	}
	if cfg.Storage != config.StorageFile {
		t.Fatalf("unexpected storage: %s", cfg.Storage)
	}
	if cfg.DBPath != filepath.Join(dir, ".mathbot", "mathbot.db") {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
	if cfg.KVDir != filepath.Join(dir, ".mathbot", "kv") {
		t.Fatalf("unexpected kv dir: %s", cfg.KVDir)
	}
	if cfg.CatalogSyncEvery != 30*time.Minute {
		t.Fatalf("unexpected sync interval: %s", cfg.CatalogSyncEvery)
	}
	if cfg.CatalogTimeout != 0 {
		t.Fatalf("expected no catalog timeout, got %s", cfg.CatalogTimeout)
	}
	if !cfg.JournalEnabled {
		t.Fatalf("journal should default to enabled")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestNewReadsYAMLAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := "api_base: http://lessons.local:9000/\nstorage: sqlite\ncatalog:\n  sync_every: 5m\njournal:\n  enabled: false\n"
	if err := os.WriteFile(filepath.Join(dir, "mathbot.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("MATHBOT_LOG_LEVEL", "debug")

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.APIBase != "http://lessons.local:9000" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBase)
	}
	if cfg.Storage != config.StorageSQLite {
		t.Fatalf("unexpected storage: %s", cfg.Storage)
	}
	if cfg.CatalogSyncEvery != 5*time.Minute {
		t.Fatalf("unexpected sync interval: %s", cfg.CatalogSyncEvery)
	}
	if cfg.JournalEnabled {
		t.Fatalf("journal should be disabled by yaml")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env override, got %s", cfg.LogLevel)
	}
}

func TestNewRejectsUnknownStorageAndEmptyPath(t *testing.T) {
	if _, err := config.New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mathbot.yaml"), []byte("storage: redis\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatalf("expected error for unknown storage")
	}
}
