// Package block defines the block behavior hook table (§6.4): the
// per-block-type interface that lets generic engine code (neighbor/shape
// propagation, random ticking) dispatch to block-specific logic without the
// chunk/tick packages needing to know about any concrete block.
package block

import "github.com/blockforge/core/server/chunk"

// World is the minimal read surface a Behavior needs. Package tick defines
// a richer World interface (embedding this one) for the engine itself;
// behaviors only ever need to read state, never to drive the full
// set_block/propagation algorithm themselves.
type World interface {
	BlockState(pos chunk.BlockPos) chunk.StateID
}

// Behavior is the hook table a registered block type may implement, mirroring
// vanilla's BlockBehaviour/BlockState dispatch. Every method has a zero-cost
// default via DefaultBehavior, so a block that needs only one or two hooks
// can embed DefaultBehavior and override just those.
type Behavior interface {
	// UpdateShape is called when a neighbor's shape changed, and returns the
	// state this block should become in response (possibly unchanged).
	UpdateShape(state chunk.StateID, w World, pos chunk.BlockPos, dir chunk.Direction, neighborPos chunk.BlockPos, neighborState chunk.StateID) chunk.StateID

	// HandleNeighborChanged is called for every neighbor-changed notification
	// (not shape-related), used by redstone components, doors, and similar.
	// sourceState is the neighbor's own state at the time of the change.
	HandleNeighborChanged(state chunk.StateID, w World, pos chunk.BlockPos, sourceState chunk.StateID, movedByPiston bool)

	// IsRandomlyTicking reports whether this state should be included in the
	// chunk's random-tick sample (§4.6.4).
	IsRandomlyTicking(state chunk.StateID) bool

	// RandomTick is called for a state for which IsRandomlyTicking returned
	// true, at most once per sampled block per tick.
	RandomTick(state chunk.StateID, w World, pos chunk.BlockPos)

	// HasBlockEntity reports whether placing this state should create a
	// block entity alongside it.
	HasBlockEntity() bool
}

// DefaultBehavior implements Behavior with vanilla's defaults: shape and
// neighbor-change hooks are no-ops, the block never random-ticks, and it has
// no block entity. Embed this in a concrete behavior to override only the
// hooks that differ.
type DefaultBehavior struct{}

func (DefaultBehavior) UpdateShape(state chunk.StateID, _ World, _ chunk.BlockPos, _ chunk.Direction, _ chunk.BlockPos, _ chunk.StateID) chunk.StateID {
	return state
}

func (DefaultBehavior) HandleNeighborChanged(chunk.StateID, World, chunk.BlockPos, chunk.StateID, bool) {
}

func (DefaultBehavior) IsRandomlyTicking(chunk.StateID) bool { return false }

func (DefaultBehavior) RandomTick(chunk.StateID, World, chunk.BlockPos) {}

func (DefaultBehavior) HasBlockEntity() bool { return false }
