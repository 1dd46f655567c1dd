package chunkmap

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"github.com/blockforge/core/server/chunk"
	"github.com/blockforge/core/server/ticket"
)

// RecoveryGraceTicks is how many ticks an unloading chunk holder is kept
// around before it is actually persisted and dropped, so that a ticket
// reappearing shortly after removal (a player walking back and forth across
// a view-distance boundary) recovers the existing holder instead of paying
// for a full reload (§4.5's "recovery" grace period).
const RecoveryGraceTicks = 20

// Store is the persistence boundary a ChunkMap loads from and saves to. It
// is implemented by an adapter over a *region.Manager plus whatever block
// and biome registries are needed to decode/encode persisted chunks; this
// package only depends on the narrow shape it actually calls, to avoid an
// import cycle with package world, which owns that adapter.
type Store interface {
	AcquireChunk(pos chunk.ChunkPos) (existed bool, err error)
	ReleaseChunk(pos chunk.ChunkPos) error
	LoadChunk(pos chunk.ChunkPos) (c *chunk.Chunk, status chunk.Status, ok bool, err error)
	SaveChunk(pos chunk.ChunkPos, c *chunk.Chunk, status chunk.Status) error
}

// Broadcaster is notified of block changes that survived a tick, so it can
// forward them to players tracking the affected chunk (§4.6.3, §6.3).
type Broadcaster interface {
	BroadcastBlockChanges(pos chunk.ChunkPos, sectionChanges map[int][]uint16)
}

type unloadingEntry struct {
	holder        *Holder
	ticksRemaining int
}

// Config configures a ChunkMap's dependencies and tuning.
type Config struct {
	Store       Store
	Generator   Generator
	Broadcaster Broadcaster
	Tickets     *ticket.Manager

	// MaxConcurrentGenerations bounds how many generation tasks may run at
	// once, standing in for the original's rayon-backed worker pool (§5).
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

// ChunkMap owns every chunk holder in a dimension: it drains ticket-level
// changes into holder creation/destruction, schedules and runs generation
// tasks bounded by a worker pool, and batches block-change broadcasts and
// unloads once per tick (§4.5).
type ChunkMap struct {
	cfg Config
	log *slog.Logger

	mu        sync.Mutex
	live      map[chunk.ChunkPos]*Holder
	unloading map[chunk.ChunkPos]*unloadingEntry
}

// New creates an empty ChunkMap.
func New(cfg Config) *ChunkMap {
	cfg = cfg.withDefaults()
	return &ChunkMap{
		cfg:       cfg,
		log:       cfg.Logger.With("component", "chunkmap"),
		live:      make(map[chunk.ChunkPos]*Holder),
		unloading: make(map[chunk.ChunkPos]*unloadingEntry),
	}
}

// Holder returns the live holder at pos, if any.
func (m *ChunkMap) Holder(pos chunk.ChunkPos) *Holder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[pos]
}

// holderOrCreate returns the live holder at pos, recovering it from the
// unloading set if present there, or creating a fresh one at level
// otherwise. Used both directly and as the lookup function for
// NeighborCache.
func (m *ChunkMap) holderOrCreate(pos chunk.ChunkPos) *Holder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holderOrCreateLocked(pos, chunk.MaxLevel)
}

func (m *ChunkMap) holderOrCreateLocked(pos chunk.ChunkPos, level int32) *Holder {
	if h, ok := m.live[pos]; ok {
		return h
	}
	if entry, ok := m.unloading[pos]; ok {
		delete(m.unloading, pos)
		m.live[pos] = entry.holder
		return entry.holder
	}
	h := NewHolder(pos, level)
	m.live[pos] = h
	return h
}

// Live returns the number of chunks currently loaded or loading.
func (m *ChunkMap) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// LivePositions returns a snapshot of every currently loaded or loading
// chunk position, for callers (the world's per-tick driver) that need to
// iterate every holder outside of ChunkMap's own lock.
func (m *ChunkMap) LivePositions() []chunk.ChunkPos {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Keys(m.live)
}

// Tick runs one pass of the chunk map's per-tick algorithm (§5): drain
// ticket changes into holder create/recover/unload, schedule generation
// tasks for any holder below its target status, run pending generation
// tasks up to the worker-pool bound, broadcast accumulated block changes,
// and advance unloading holders' grace countdowns.
func (m *ChunkMap) Tick(ctx context.Context) {
	changes := m.cfg.Tickets.RunAllUpdates()
	tasks := m.applyLevelChanges(changes)
	m.runGenerationTasks(ctx, tasks)
	m.broadcastChanges()
	m.processUnloads()
}

// applyLevelChanges folds a batch of ticket level changes into holder
// creation/removal and returns the generation tasks that need to run this
// tick as a result.
func (m *ChunkMap) applyLevelChanges(changes []ticket.LevelChange) []*GenerationTask {
	var tasks []*GenerationTask

	m.mu.Lock()
	var toSchedule []chunk.ChunkPos
	for _, change := range changes {
		if change.NewLevel == nil {
			if h, ok := m.live[change.Pos]; ok {
				delete(m.live, change.Pos)
				h.CancelGenerationTask()
				m.unloading[change.Pos] = &unloadingEntry{holder: h, ticksRemaining: RecoveryGraceTicks}
			}
			continue
		}
		h := m.holderOrCreateLocked(change.Pos, *change.NewLevel)
		h.SetTicketLevel(*change.NewLevel)
		toSchedule = append(toSchedule, change.Pos)
	}
	m.mu.Unlock()

	for _, pos := range toSchedule {
		if task := m.scheduleGenerationFor(pos); task != nil {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// scheduleGenerationFor installs a GenerationTask on the holder at pos if
// it is not already at (or being driven to) its ticket-level-implied target
// status, replacing and cancelling any stale task first.
func (m *ChunkMap) scheduleGenerationFor(pos chunk.ChunkPos) *GenerationTask {
	h := m.Holder(pos)
	if h == nil {
		return nil
	}
	target := chunk.StatusForLevel(h.TicketLevel())

	if cur, ok := h.PersistedStatus(); ok && cur >= target {
		return nil
	}
	if h.CurrentTask() != nil {
		return nil
	}

	radius := target.AccumulatedRadius()
	if radius == 0 {
		for s := chunk.Status(1); s <= target; s++ {
			if r := s.AccumulatedRadius(); r > radius {
				radius = r
			}
		}
	}
	neighbors := NewNeighborCache(pos, radius, m.holderOrCreate)

	task := NewGenerationTask(pos, h, target, m.cfg.Generator, neighbors)
	if old := h.ReplaceTask(task); old != nil {
		old.MarkForCancel()
	}
	return task
}

// runGenerationTasks runs every task concurrently, bounded by the
// configured worker-pool limit, and waits for all of them to finish before
// returning (§5: "generation work is bounded, not fire-and-forget").
func (m *ChunkMap) runGenerationTasks(ctx context.Context, tasks []*GenerationTask) {
	if len(tasks) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrentGenerations)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			task.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// broadcastChanges drains every live holder's pending block changes and
// forwards them to the configured Broadcaster.
func (m *ChunkMap) broadcastChanges() {
	if m.cfg.Broadcaster == nil {
		return
	}
	m.mu.Lock()
	holders := make([]*Holder, 0, len(m.live))
	for _, h := range m.live {
		holders = append(holders, h)
	}
	m.mu.Unlock()

	for _, h := range holders {
		c, ok := h.TryChunk(chunk.Empty)
		if !ok {
			continue
		}
		if !c.HasPending() {
			continue
		}
		pending := c.DrainPending()
		if len(pending) > 0 {
			m.cfg.Broadcaster.BroadcastBlockChanges(h.Pos(), pending)
		}
	}
}

// processUnloads advances every unloading holder's grace countdown,
// persisting and dropping any whose countdown has expired.
func (m *ChunkMap) processUnloads() {
	m.mu.Lock()
	var expired []chunk.ChunkPos
	for pos, entry := range m.unloading {
		entry.ticksRemaining--
		if entry.ticksRemaining <= 0 {
			expired = append(expired, pos)
		}
	}
	m.mu.Unlock()

	for _, pos := range expired {
		m.mu.Lock()
		entry, ok := m.unloading[pos]
		if ok {
			delete(m.unloading, pos)
		}
		m.mu.Unlock()
		if !ok {
			continue
		}
		m.saveAndRelease(pos, entry.holder)
	}
}

func (m *ChunkMap) saveAndRelease(pos chunk.ChunkPos, h *Holder) {
	c, ok := h.TryChunk(chunk.Empty)
	if ok && c.IsDirty() && m.cfg.Store != nil {
		if err := m.cfg.Store.SaveChunk(pos, c, c.Status()); err != nil {
			m.log.Error("failed to save chunk on unload", "pos", pos, "error", err)
		} else {
			c.ClearDirty()
		}
	}
	if m.cfg.Store != nil {
		if err := m.cfg.Store.ReleaseChunk(pos); err != nil {
			m.log.Error("failed to release chunk region handle", "pos", pos, "error", err)
		}
	}
}

// Shutdown cancels every in-flight generation task and saves every loaded
// chunk, used during a clean server stop.
func (m *ChunkMap) Shutdown() {
	m.mu.Lock()
	holders := make([]*Holder, 0, len(m.live))
	for _, h := range m.live {
		h.CancelGenerationTask()
		holders = append(holders, h)
	}
	m.mu.Unlock()

	for _, h := range holders {
		m.saveAndRelease(h.Pos(), h)
	}
}
