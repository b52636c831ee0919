package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/property-registry/internal/config"
	"github.com/dvloznov/property-registry/internal/localstore"
	"github.com/dvloznov/property-registry/internal/logger"
	"github.com/dvloznov/property-registry/internal/mirror"
	"github.com/dvloznov/property-registry/internal/registry"
)

// Factory reset: wipes the local store and reseeds the registry with
// the built-in admin account.
func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	log := logger.New()
	cfg := config.Load()

	if !*yes {
		fmt.Printf("This wipes all registry data in %s (scope %s). Type 'reset' to continue: ", cfg.DBPath, cfg.Scope)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) != "reset" {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	ctx := context.Background()

	local, err := localstore.Open(cfg.DBPath, cfg.Scope)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open local store")
	}
	defer local.Close()

	var remote *mirror.Mirror
	if cfg.MirrorEnabled() {
		remote, err = mirror.New(ctx, cfg.BQProject, cfg.BQDataset)
		if err != nil {
			log.Warn().Err(err).Msg("Remote mirror unavailable, resetting local only")
			remote = nil
		} else {
			defer remote.Close()
		}
	}

	reg := registry.New(local, remote, log)
	reg.Bootstrap(ctx)
	reg.FactoryReset(ctx)

	fmt.Println("Registry reset to seed state.")
}
