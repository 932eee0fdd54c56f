package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Mode != "release" {
		t.Errorf("mode = %q, want release", cfg.Mode)
	}
	if cfg.LookupTimeout != 2*time.Second {
		t.Errorf("lookup_timeout = %v, want 2s", cfg.LookupTimeout)
	}
	if cfg.JoinLimit != 10 {
		t.Errorf("join_limit = %d, want 10", cfg.JoinLimit)
	}
	if len(cfg.STUNURLs) == 0 {
		t.Error("stun_urls default missing")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := []byte("mode: debug\nport: 9999\ndirectory_url: http://profiles.internal\njoin_limit: 3\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "debug" {
		t.Errorf("mode = %q, want debug", cfg.Mode)
	}
	if cfg.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Port)
	}
	if cfg.DirectoryURL != "http://profiles.internal" {
		t.Errorf("directory_url = %q", cfg.DirectoryURL)
	}
	if cfg.JoinLimit != 3 {
		t.Errorf("join_limit = %d, want 3", cfg.JoinLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.ReadLimit != 32768 {
		t.Errorf("read_limit = %d, want default", cfg.ReadLimit)
	}
}
