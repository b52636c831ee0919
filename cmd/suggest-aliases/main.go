package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/property-registry/internal/logger"
	"github.com/dvloznov/property-registry/internal/pipeline"
)

// Proposes alias-group additions for a CSV export whose headers do not
// resolve to the known logical fields. Purely advisory: the suggested
// mappings are printed for a maintainer to review, never applied.
func main() {
	path := flag.String("file", "", "CSV export whose headers should be analyzed")
	flag.Parse()

	log := logger.New()

	if *path == "" {
		log.Fatal().Msg("-file is required")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to read export")
	}

	header, missing, err := pipeline.UnresolvedFields(string(raw))
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Export is not a readable CSV")
	}

	if len(missing) == 0 {
		fmt.Println("All logical fields resolve; nothing to suggest.")
		return
	}

	fmt.Printf("Unresolved fields: %v\n", missing)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	suggestions, err := pipeline.SuggestAliases(ctx, header, missing)
	if err != nil {
		log.Fatal().Err(err).Msg("Suggestion request failed")
	}

	fmt.Println("\nProposed header mappings (review before adding to the alias table):")
	for field, column := range suggestions {
		fmt.Printf("  %-14s <- %s\n", field, column)
	}
}
