// Package tick implements the tick clock (C6.1), the set_block/neighbor/
// shape-update propagation engine (C6.3), and the random-tick block sampler
// (C6.4). Scheduled-tick lists (C6.2) live in package chunk and are drained
// by package world.
package tick

import (
	"log/slog"

	"github.com/blockforge/core/server/block"
	"github.com/blockforge/core/server/chunk"
)

// DefaultUpdateLimit is the recursion budget set_block starts with when the
// caller doesn't specify one, matching vanilla's default (§4.6.3).
const DefaultUpdateLimit = 512

// neighborUpdateOrder is the fixed order set_block notifies neighbors in
// (§4.6.3 step 3, §6.4): West, East, Down, Up, North, South.
var neighborUpdateOrder = chunk.Directions

// World is the read/write surface the propagation engine needs from
// whatever owns chunk storage — implemented concretely by package world.
// It embeds block.World so behaviors invoked during propagation see exactly
// the same read surface the engine itself uses.
type World interface {
	block.World

	// InValidBounds reports whether pos is inside the world's build height
	// and horizontal chunk-position limits.
	InValidBounds(pos chunk.BlockPos) bool

	// SetBlockState installs a new state at pos, returning the previous
	// state and whether it actually changed. Implementations are
	// responsible for recording the change for later broadcast (chunk
	// dirty-tracking) — the engine itself only decides when to call this
	// and how to propagate afterward.
	SetBlockState(pos chunk.BlockPos, state chunk.StateID) (old chunk.StateID, changed bool)

	// BehaviorForState resolves the Behavior registered for a state's block
	// type.
	BehaviorForState(state chunk.StateID) block.Behavior
}

// Engine drives set_block and its neighbor/shape-update propagation,
// grounded on the original's World::set_block_with_limit /
// neighbor_shape_changed / neighbor_changed (§4.6.3).
type Engine struct {
	w   World
	log *slog.Logger
}

// NewEngine creates an Engine operating over w.
func NewEngine(w World, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{w: w, log: log}
}

// SetBlock sets a block with the default recursion budget.
func (e *Engine) SetBlock(pos chunk.BlockPos, state chunk.StateID, flags Flags) bool {
	return e.SetBlockWithLimit(pos, state, flags, DefaultUpdateLimit)
}

// SetBlockWithLimit sets a block at pos, then — depending on flags —
// notifies neighbors and/or recursively propagates shape updates, with
// updateLimit bounding the total recursion depth across the whole
// propagation (§4.6.3, §7: exceeding the budget truncates propagation
// rather than erroring).
func (e *Engine) SetBlockWithLimit(pos chunk.BlockPos, state chunk.StateID, flags Flags, updateLimit int) bool {
	if updateLimit <= 0 {
		return false
	}
	if !e.w.InValidBounds(pos) {
		return false
	}

	old, changed := e.w.SetBlockState(pos, state)
	if !changed {
		return false
	}

	if flags.Has(UpdateNeighbors) {
		e.updateNeighborsAt(pos, old)
	}

	if !flags.Has(UpdateKnownShape) && updateLimit > 0 {
		childFlags := flags.without(UpdateNeighbors | UpdateSuppressDrops)
		for _, dir := range neighborUpdateOrder {
			neighborPos := pos.Side(dir)
			e.neighborShapeChanged(dir.Opposite(), neighborPos, pos, state, childFlags, updateLimit-1)
		}
	}

	return true
}

// updateNeighborsAt notifies every neighbor of pos that a block changed at
// pos, in the fixed West/East/Down/Up/North/South order.
func (e *Engine) updateNeighborsAt(pos chunk.BlockPos, oldState chunk.StateID) {
	for _, dir := range neighborUpdateOrder {
		e.neighborChanged(pos.Side(dir), oldState, false)
	}
}

// neighborShapeChanged re-evaluates the block at pos in light of a shape
// change at neighborPos, and if its behavior computes a new state,
// recursively sets it (bounded by updateLimit).
func (e *Engine) neighborShapeChanged(dir chunk.Direction, pos, neighborPos chunk.BlockPos, neighborState chunk.StateID, flags Flags, updateLimit int) {
	if !e.w.InValidBounds(pos) {
		return
	}
	current := e.w.BlockState(pos)
	behavior := e.w.BehaviorForState(current)
	newState := behavior.UpdateShape(current, e.w, pos, dir, neighborPos, neighborState)
	if newState != current {
		e.SetBlockWithLimit(pos, newState, flags, updateLimit)
	}
}

// neighborChanged notifies the block at pos that a neighbor changed (not a
// shape change), dispatching to its behavior's HandleNeighborChanged hook.
func (e *Engine) neighborChanged(pos chunk.BlockPos, sourceState chunk.StateID, movedByPiston bool) {
	if !e.w.InValidBounds(pos) {
		return
	}
	state := e.w.BlockState(pos)
	behavior := e.w.BehaviorForState(state)
	behavior.HandleNeighborChanged(state, e.w, pos, sourceState, movedByPiston)
}
