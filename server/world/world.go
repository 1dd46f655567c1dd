// Package world wires together every other package into one runnable
// dimension: chunk storage and generation (chunkmap, region, ticket), block
// propagation and the tick clock (tick, block), entity/player tracking
// (tracker, entity, player), and the per-tick driver loop (§5).
package world

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blockforge/core/server/block"
	"github.com/blockforge/core/server/chunk"
	"github.com/blockforge/core/server/chunkmap"
	"github.com/blockforge/core/server/player"
	"github.com/blockforge/core/server/region"
	"github.com/blockforge/core/server/tick"
	"github.com/blockforge/core/server/ticket"
	"github.com/blockforge/core/server/tracker"
)

// Config configures a World's tuning and fixed dimension geometry.
type Config struct {
	MinY, Height int32
	DefaultBiome chunk.BiomeID
	BiomeKeys    []string

	RegionDir string

	Generator               chunkmap.Generator
	MaxConcurrentGenerations int

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentGenerations <= 0 {
		c.MaxConcurrentGenerations = 4
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// World is the concrete implementation of tick.World (and, transitively,
// block.World), backed by a chunkmap.ChunkMap and the block behavior table.
// It also owns the tick clock, propagation engine, random ticker, ticket
// manager, and player/entity tracking for a single dimension (§5).
type World struct {
	cfg Config
	log *slog.Logger

	registry *chunk.Registry
	biomes   *biomeTable
	table    *block.Table

	tickets      *ticket.Manager
	store        *regionStore
	broadcast    *broadcaster
	chunkMap     *chunkmap.ChunkMap
	engine       *tick.Engine
	Clock        *tick.TickClock
	randomTicker *tick.RandomTicker

	areas    *tracker.PlayerAreaMap
	entities *tracker.EntityTracker

	mu         sync.Mutex
	players    map[int32]*player.Player
	sessions   map[int32]*playerSession
	nextEntity int32
}

// playerSession tracks the per-player state needed to diff chunk views
// tick over tick, separate from the player's own connection-facing fields
// (§4.7).
type playerSession struct {
	lastView []chunk.ChunkPos
}

// New builds a World over registry/table, persisting to a *region.Manager
// rooted at cfg.RegionDir.
func New(cfg Config, registry *chunk.Registry, table *block.Table) (*World, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("component", "world")

	manager, err := region.NewManager(region.Config{BaseDir: cfg.RegionDir, Logger: log})
	if err != nil {
		return nil, err
	}
	biomes := newBiomeTable(cfg.BiomeKeys...)
	store := newRegionStore(manager, registry, biomes, cfg.MinY, cfg.Height, cfg.DefaultBiome)

	w := &World{
		cfg:          cfg,
		log:          log,
		registry:     registry,
		biomes:       biomes,
		table:        table,
		tickets:      ticket.NewManager(),
		store:        store,
		areas:        tracker.NewPlayerAreaMap(),
		entities:     tracker.NewEntityTracker(),
		players:      make(map[int32]*player.Player),
		sessions:     make(map[int32]*playerSession),
		Clock:        tick.NewTickClock(),
		randomTicker: tick.NewRandomTicker(nil),
	}
	w.broadcast = newBroadcaster(w)

	generator := cfg.Generator
	if generator == nil {
		generator = chunkmap.NewFlatGenerator(nil)
	}

	w.chunkMap = chunkmap.New(chunkmap.Config{
		Store:                    store,
		Generator:                generator,
		Broadcaster:              w.broadcast,
		Tickets:                  w.tickets,
		MaxConcurrentGenerations: cfg.MaxConcurrentGenerations,
		Logger:                   log,
	})
	w.engine = tick.NewEngine(w, log)
	return w, nil
}

// --- block.World / tick.World ---

// BlockState returns the state at pos, or air if the owning chunk isn't
// loaded to at least Full status.
func (w *World) BlockState(pos chunk.BlockPos) chunk.StateID {
	h := w.chunkMap.Holder(pos.Chunk())
	if h == nil {
		return 0
	}
	c, ok := h.TryChunk(chunk.Full)
	if !ok {
		return 0
	}
	return c.BlockAt(pos)
}

// InValidBounds reports whether pos falls within this world's configured
// build height.
func (w *World) InValidBounds(pos chunk.BlockPos) bool {
	return pos.Y >= w.cfg.MinY && pos.Y < w.cfg.MinY+w.cfg.Height
}

// SetBlockState installs state at pos in its owning chunk, provided that
// chunk is loaded to Full status, marking the chunk dirty and queuing the
// change for broadcast (handled internally by chunk.Chunk.SetBlockAt).
func (w *World) SetBlockState(pos chunk.BlockPos, state chunk.StateID) (chunk.StateID, bool) {
	h := w.chunkMap.Holder(pos.Chunk())
	if h == nil {
		return 0, false
	}
	var old chunk.StateID
	var changed bool
	h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
		old, changed = c.SetBlockAt(pos, state)
	})
	return old, changed
}

// BehaviorForState resolves state's registered Behavior, falling back to
// block.DefaultBehavior on any registry error (an unknown/stale state id
// should never panic the propagation engine).
func (w *World) BehaviorForState(state chunk.StateID) block.Behavior {
	b, err := w.table.BehaviorForState(w.registry, state)
	if err != nil {
		return block.DefaultBehavior{}
	}
	return b
}

// Engine returns the propagation engine driving set_block on this world.
func (w *World) Engine() *tick.Engine { return w.engine }

// Tickets returns the ticket manager backing this world's chunk loading.
func (w *World) Tickets() *ticket.Manager { return w.tickets }

// ChunkMap returns the underlying chunk map, for callers needing direct
// holder access (chunk-send streaming, admin tooling).
func (w *World) ChunkMap() *chunkmap.ChunkMap { return w.chunkMap }

// Registry returns the block-state registry this world was built with.
func (w *World) Registry() *chunk.Registry { return w.registry }

// Tick runs one full server tick (§5): first chunkMap.Tick (ticket/holder
// maintenance, generation, block-change broadcast and unload processing, in
// that order), then scheduled-tick draining, random ticking over every
// loaded Full chunk, and player movement/view streaming. Block changes made
// by those later steps are broadcast by the next tick's chunkMap.Tick.
func (w *World) Tick(ctx context.Context) {
	if !w.Clock.ShouldTick() {
		return
	}

	w.chunkMap.Tick(ctx)
	w.drainScheduledTicks()
	w.randomTickLoadedChunks()
	w.tickPlayers()
}

func (w *World) drainScheduledTicks() {
	for _, pos := range w.loadedChunkPositions() {
		h := w.chunkMap.Holder(pos)
		if h == nil {
			continue
		}
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			ready := c.BlockTicks().DrainReady()
			for _, t := range ready {
				w.engine.SetBlock(t.Pos, t.Target.Default(), tick.UpdateAll)
			}
			// Fluid ticks are drained to honor the per-(pos, type) dedup
			// invariant even though no fluid-flow behavior is wired yet;
			// there is no fluid block-behavior table to dispatch into.
			c.FluidTicks().DrainReady()
		})
	}
}

func (w *World) randomTickLoadedChunks() {
	for _, pos := range w.loadedChunkPositions() {
		h := w.chunkMap.Holder(pos)
		if h == nil {
			continue
		}
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			w.randomTicker.Tick(w, c)
		})
	}
}

func (w *World) loadedChunkPositions() []chunk.ChunkPos {
	return w.chunkMap.LivePositions()
}
