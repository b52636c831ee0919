package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/property-registry/internal/config"
	"github.com/dvloznov/property-registry/internal/gcsio"
	"github.com/dvloznov/property-registry/internal/localstore"
	"github.com/dvloznov/property-registry/internal/logger"
	"github.com/dvloznov/property-registry/internal/mirror"
	"github.com/dvloznov/property-registry/internal/pipeline"
	"github.com/dvloznov/property-registry/internal/registry"
)

// One-shot ingestion of a single CSV export, from a local path or a
// gs:// URI, against the same registry core cmd/api serves.
func main() {
	var (
		source = flag.String("source", "", "CSV export to ingest: local path or gs:// URI")
		mode   = flag.String("mode", "incremental", "merge mode: incremental or destructive")
	)
	flag.Parse()

	log := logger.New()

	if *source == "" {
		log.Fatal().Msg("-source is required")
	}

	cfg := config.Load()
	ctx := context.Background()

	var (
		raw []byte
		err error
	)
	if gcsio.IsGCSURI(*source) {
		raw, err = gcsio.Fetch(ctx, *source)
	} else {
		raw, err = os.ReadFile(*source)
	}
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Failed to read export")
	}

	batch, err := pipeline.Normalize(string(raw), time.Now())
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Export is not a readable CSV")
	}

	local, err := localstore.Open(cfg.DBPath, cfg.Scope)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open local store")
	}
	defer local.Close()

	var remote *mirror.Mirror
	if cfg.MirrorEnabled() {
		remote, err = mirror.New(ctx, cfg.BQProject, cfg.BQDataset)
		if err != nil {
			log.Warn().Err(err).Msg("Remote mirror unavailable, continuing local-only")
			remote = nil
		} else {
			defer remote.Close()
		}
	}

	reg := registry.New(local, remote, log)
	reg.Bootstrap(ctx)

	if err := reg.ImportBatch(ctx, batch, registry.ParseMode(*mode)); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().
		Str("source", *source).
		Str("mode", *mode).
		Int("owners", batch.OwnerCount()).
		Int("files", batch.FileCount()).
		Msg("Import completed")
}
