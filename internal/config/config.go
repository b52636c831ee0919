package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultDBPath  = "data/registry.db"
	DefaultScope   = "v1"
	DefaultDataset = "registry"
	DefaultPort    = "8080"
)

// Config holds the runtime configuration of the registry service.
// Remote mirroring and import archival are capabilities: they are
// enabled only when the corresponding value is configured, resolved
// once at startup.
type Config struct {
	// DBPath is the SQLite database file backing the local store.
	DBPath string

	// Scope versions the local storage namespace. Snapshots written
	// under one scope are invisible to another.
	Scope string

	// BQProject and BQDataset address the BigQuery mirror. An empty
	// project disables mirroring entirely.
	BQProject string
	BQDataset string

	// GCSBucket receives archived copies of raw import files. Empty
	// disables archival.
	GCSBucket string

	// Port is the HTTP listen port for cmd/api.
	Port string
}

// Load reads configuration from the environment, after loading a .env
// file from the working directory when one exists. A missing .env is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBPath:    getenv("REGISTRY_DB_PATH", DefaultDBPath),
		Scope:     getenv("REGISTRY_SCOPE", DefaultScope),
		BQProject: getenv("BQ_PROJECT", ""),
		BQDataset: getenv("BQ_DATASET", DefaultDataset),
		GCSBucket: getenv("GCS_BUCKET", ""),
		Port:      getenv("PORT", DefaultPort),
	}
}

// MirrorEnabled reports whether the remote mirror capability is on.
func (c Config) MirrorEnabled() bool {
	return c.BQProject != ""
}

// ArchiveEnabled reports whether raw import archival is on.
func (c Config) ArchiveEnabled() bool {
	return c.GCSBucket != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
