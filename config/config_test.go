// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateRejectsBadHistoryPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Policy = "by-count"
	cfg.History.MaxCount = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for by-count policy without max_count")
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redlite.yaml")
	contents := []byte("storage:\n  backend: sqlite\n  path: /tmp/redlite.db\n  cache_mb: 128\n  busy_timeout: 2s\nserver:\n  addr: 0.0.0.0:6380\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Storage.Path != "/tmp/redlite.db" {
		t.Fatalf("got path %q, want /tmp/redlite.db", cfg.Storage.Path)
	}
	if cfg.Storage.CacheMB != 128 {
		t.Fatalf("got cache_mb %d, want 128", cfg.Storage.CacheMB)
	}
	if cfg.Server.Addr != "0.0.0.0:6380" {
		t.Fatalf("got addr %q, want 0.0.0.0:6380", cfg.Server.Addr)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("REDLITE_STORAGE_PATH", "/data/override.db")
	if err := cfg.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Path != "/data/override.db" {
		t.Fatalf("got path %q, want override", cfg.Storage.Path)
	}
}
