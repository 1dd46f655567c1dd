// Command server boots a single dimension: it loads the on-disk
// configuration, registers the block-state table, wires a world.World over
// it, and drives the per-tick loop until interrupted.
//
// This is the host-loop wiring boundary (§1): the network/protocol layer
// that would accept real client connections, and the out-of-scope
// collaborators DESIGN.md names (authentication, plugin hosting), are not
// implemented here — AddPlayer/RemovePlayer are exposed on
// world.World for whatever connection layer is wired in later.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockforge/core/server/block"
	"github.com/blockforge/core/server/chunk"
	"github.com/blockforge/core/server/config"
	"github.com/blockforge/core/server/world"
)

func main() {
	configPath := flag.String("config", "server.toml", "path to the server configuration file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	registry, table, defaultBiome, err := bootstrapBlocks()
	if err != nil {
		log.Error("failed to register block states", "error", err)
		os.Exit(1)
	}

	w, err := world.New(world.Config{
		MinY:                     cfg.MinY,
		Height:                   cfg.Height,
		DefaultBiome:             defaultBiome,
		BiomeKeys:                []string{"minecraft:plains"},
		RegionDir:                cfg.WorldDir,
		MaxConcurrentGenerations: cfg.MaxConcurrentGenerations,
		Logger:                   log,
	}, registry, table)
	if err != nil {
		log.Error("failed to construct world", "error", err)
		os.Exit(1)
	}
	w.Clock.SetTickRate(cfg.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("server starting",
		"config", *configPath,
		"world_dir", cfg.WorldDir,
		"tick_rate", cfg.TickRate,
		"view_distance", cfg.ViewDistance,
	)

	runTickLoop(ctx, w, log)

	log.Info("server stopped")
}

// bootstrapBlocks registers the minimal block-state set the propagation
// engine and random ticker exercise (air, a solid default, a torch, and a
// sign), matching the behaviors already wired in package block.
func bootstrapBlocks() (*chunk.Registry, *block.Table, chunk.BiomeID, error) {
	registry := chunk.NewRegistry()

	air, err := registry.Register("minecraft:air", nil, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	if _, err := registry.Register("minecraft:stone", nil, 0); err != nil {
		return nil, nil, 0, err
	}
	torch, err := registry.Register("minecraft:torch", nil, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	sign, err := registry.Register("minecraft:sign", nil, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	registry.Freeze()

	table := block.NewTable()
	table.Set(torch, block.TorchBehavior{AirState: air.Default()})
	table.Set(sign, block.SignBehavior{})

	return registry, table, 0, nil
}

// runTickLoop drives World.Tick at the clock's configured rate until ctx is
// canceled, the same fixed-rate ticker shape the original's server loop
// uses, adapted to tick.TickClock's own NanosPerTick rather than a hardcoded
// constant.
func runTickLoop(ctx context.Context, w *world.World, log *slog.Logger) {
	ticker := time.NewTicker(time.Duration(w.Clock.NanosPerTick()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}
