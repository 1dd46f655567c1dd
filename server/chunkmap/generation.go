package chunkmap

import (
	"context"
	"sync/atomic"

	"github.com/blockforge/core/server/chunk"
)

// Generator produces chunk data for a single generation step. Implementations
// receive the chunk at its current (parent) status plus read-only access to
// already-generated neighbors within AccumulatedRadius, and must advance it
// to target in place. A minimal flat generator is provided in generator.go;
// real terrain generation is out of scope (§1 Non-goals).
type Generator interface {
	Generate(ctx context.Context, target chunk.Status, c *chunk.Chunk, neighbors *NeighborCache) error
}

// neighborReady is a closure standing in for the spec's per-neighbor future:
// it blocks until the neighbor at the given Chebyshev offset has reached the
// required status, or returns false if cancelled or failed.
type neighborReady func(ctx context.Context) bool

// GenerationTask drives a single chunk's promotion from its current status
// up to a target status, one layer of the generation pyramid at a time,
// waiting on neighbor readiness between layers (§4.3, §4.5).
type GenerationTask struct {
	pos       chunk.ChunkPos
	holder    *Holder
	target    chunk.Status
	generator Generator
	neighbors *NeighborCache

	cancelled atomic.Bool
	done      chan struct{}
}

// NewGenerationTask creates a task that will drive holder's chunk up to
// target status using generator, consulting neighbors for readiness checks.
func NewGenerationTask(pos chunk.ChunkPos, holder *Holder, target chunk.Status, generator Generator, neighbors *NeighborCache) *GenerationTask {
	return &GenerationTask{
		pos:       pos,
		holder:    holder,
		target:    target,
		generator: generator,
		neighbors: neighbors,
		done:      make(chan struct{}),
	}
}

// MarkForCancel requests cooperative cancellation; the task checks this
// between layers and before starting generation work (§4.5: "cancellation
// is cooperative, checked between pyramid layers").
func (t *GenerationTask) MarkForCancel() { t.cancelled.Store(true) }

// Cancelled reports whether cancellation has been requested.
func (t *GenerationTask) Cancelled() bool { return t.cancelled.Load() }

// Done returns a channel closed once the task finishes, for callers that
// want to wait on it without driving it themselves.
func (t *GenerationTask) Done() <-chan struct{} { return t.done }

// Run drives the chunk from its current status up to t.target, one status
// step at a time, waiting for the accumulated-radius neighbor set to reach
// the same step before promoting, and returns once it completes, fails, or
// observes cancellation. It is always invoked from a worker-pool goroutine
// by ChunkMap.runGenerationTasks.
func (t *GenerationTask) Run(ctx context.Context) {
	defer close(t.done)
	defer t.holder.ClearTaskIfCurrent(t)

	for {
		if t.cancelled.Load() {
			return
		}
		cur, ok := t.holder.PersistedStatus()
		var next chunk.Status
		if !ok {
			next = chunk.Empty
		} else {
			if cur >= t.target {
				return
			}
			next = cur + 1
		}

		if !t.holder.AcquireStatusBump(next) {
			// Another task already claimed (or passed) this step; our work
			// here is done, whatever happens next is not ours to drive.
			return
		}

		radius := next.AccumulatedRadius()
		if radius > 0 && !t.awaitNeighbors(ctx, next, radius) {
			t.holder.MarkFailed()
			return
		}

		c, existed := t.holder.TryChunk(chunk.Empty)
		if !existed {
			c = chunk.New(t.pos, -64, 384, 0)
			t.holder.InsertChunk(c, chunk.Empty)
		}

		if err := t.generator.Generate(ctx, next, c, t.neighbors); err != nil {
			t.holder.MarkFailed()
			return
		}
		c.Advance(next)
		t.holder.InsertChunk(c, next)
	}
}

// awaitNeighbors blocks until every chunk within radius (Chebyshev) of
// t.pos has itself reached status, or returns false on cancellation/ctx
// done/neighbor failure.
func (t *GenerationTask) awaitNeighbors(ctx context.Context, status chunk.Status, radius int) bool {
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			if t.cancelled.Load() {
				return false
			}
			np := t.pos.Add(int32(dx), int32(dz))
			nh := t.neighbors.Get(np)
			if nh == nil {
				return false
			}
			if _, ok := nh.AwaitStatus(ctx, status); !ok {
				return false
			}
		}
	}
	return true
}
