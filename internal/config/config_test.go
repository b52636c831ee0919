package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REGISTRY_DB_PATH", "")
	t.Setenv("REGISTRY_SCOPE", "")
	t.Setenv("BQ_PROJECT", "")
	t.Setenv("BQ_DATASET", "")
	t.Setenv("GCS_BUCKET", "")
	t.Setenv("PORT", "")

	cfg := Load()

	if cfg.DBPath != DefaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, DefaultDBPath)
	}
	if cfg.Scope != DefaultScope {
		t.Errorf("Scope = %q, want %q", cfg.Scope, DefaultScope)
	}
	if cfg.MirrorEnabled() {
		t.Error("MirrorEnabled() = true with no project configured")
	}
	if cfg.ArchiveEnabled() {
		t.Error("ArchiveEnabled() = true with no bucket configured")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REGISTRY_DB_PATH", "/tmp/reg.db")
	t.Setenv("REGISTRY_SCOPE", "v2")
	t.Setenv("BQ_PROJECT", "my-project")
	t.Setenv("BQ_DATASET", "registry_prod")
	t.Setenv("GCS_BUCKET", "registry-imports")
	t.Setenv("PORT", "9090")

	cfg := Load()

	if cfg.DBPath != "/tmp/reg.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Scope != "v2" {
		t.Errorf("Scope = %q", cfg.Scope)
	}
	if !cfg.MirrorEnabled() {
		t.Error("MirrorEnabled() = false with project configured")
	}
	if cfg.BQDataset != "registry_prod" {
		t.Errorf("BQDataset = %q", cfg.BQDataset)
	}
	if !cfg.ArchiveEnabled() {
		t.Error("ArchiveEnabled() = false with bucket configured")
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestGetenvTrimsWhitespace(t *testing.T) {
	t.Setenv("REGISTRY_SCOPE", "  ")

	cfg := Load()
	if cfg.Scope != DefaultScope {
		t.Errorf("Scope = %q, want default for blank value", cfg.Scope)
	}
}
