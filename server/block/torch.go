package block

import "github.com/blockforge/core/server/chunk"

// TorchBehavior is a standing torch: it breaks (falls back to air) when the
// block below is removed, and participates in random ticking as a scaffold
// for redstone-style timed state changes. The actual "flip LIT after N
// random ticks" redstone timing is out of scope (SPEC_FULL's Non-goals
// exclude "redstone simulation semantics beyond the framework that
// dispatches their ticks") — RandomTick is deliberately a no-op hook point
// here, matching the original's own unimplemented
// "TODO: random_tick for state changes" on RedstoneTorchBlock.
type TorchBehavior struct {
	DefaultBehavior

	// AirState is the state id UpdateShape falls back to when the
	// supporting block is removed.
	AirState chunk.StateID
}

// UpdateShape implements Behavior: a torch cannot survive without a solid
// block beneath it, so when the neighbor below changes, re-check it and
// break to air if it is gone.
func (t TorchBehavior) UpdateShape(state chunk.StateID, w World, pos chunk.BlockPos, dir chunk.Direction, neighborPos chunk.BlockPos, neighborState chunk.StateID) chunk.StateID {
	if dir == chunk.Down && !t.canSurvive(w, pos) {
		return t.AirState
	}
	return state
}

// canSurvive reports whether the block directly below pos is anything
// other than air. A real implementation would consult the block's
// collision shape; this scaffold only distinguishes air from non-air,
// sufficient to exercise the shape-update path end to end.
func (t TorchBehavior) canSurvive(w World, pos chunk.BlockPos) bool {
	below := pos.Side(chunk.Down)
	return w.BlockState(below) != t.AirState
}

// IsRandomlyTicking implements Behavior: torches opt into the random-tick
// sampler (§4.6.4) so the scaffold has at least one real consumer to
// exercise it end to end.
func (t TorchBehavior) IsRandomlyTicking(chunk.StateID) bool { return true }

// RandomTick implements Behavior as an explicit no-op scaffold point; see
// the type doc comment.
func (t TorchBehavior) RandomTick(chunk.StateID, World, chunk.BlockPos) {}
