package tick

import (
	"testing"
	"time"

	"github.com/blockforge/core/server/block"
	"github.com/blockforge/core/server/chunk"
)

// fakeWorld is a flat in-memory block.World/tick.World for exercising the
// propagation engine without pulling in the full chunk/region machinery.
type fakeWorld struct {
	states     map[chunk.BlockPos]chunk.StateID
	behaviors  map[chunk.StateID]block.Behavior
	defaultBeh block.Behavior
	minY       int32
	height     int32
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		states:     make(map[chunk.BlockPos]chunk.StateID),
		behaviors:  make(map[chunk.StateID]block.Behavior),
		defaultBeh: block.DefaultBehavior{},
		minY:       -64,
		height:     384,
	}
}

func (w *fakeWorld) BlockState(pos chunk.BlockPos) chunk.StateID {
	return w.states[pos]
}

func (w *fakeWorld) InValidBounds(pos chunk.BlockPos) bool {
	return pos.Y >= w.minY && pos.Y < w.minY+w.height
}

func (w *fakeWorld) SetBlockState(pos chunk.BlockPos, state chunk.StateID) (chunk.StateID, bool) {
	old := w.states[pos]
	if old == state {
		return old, false
	}
	w.states[pos] = state
	return old, true
}

func (w *fakeWorld) BehaviorForState(state chunk.StateID) block.Behavior {
	if b, ok := w.behaviors[state]; ok {
		return b
	}
	return w.defaultBeh
}

// recordingBehavior counts neighbor-changed notifications it receives, to
// verify the engine notifies in the fixed West/East/Down/Up/North/South
// order.
type recordingBehavior struct {
	block.DefaultBehavior
	notified *[]chunk.BlockPos
}

func (b recordingBehavior) HandleNeighborChanged(_ chunk.StateID, _ block.World, pos chunk.BlockPos, _ chunk.StateID, _ bool) {
	*b.notified = append(*b.notified, pos)
}

func TestSetBlockNotifiesNeighborsInFixedOrder(t *testing.T) {
	w := newFakeWorld()
	var order []chunk.BlockPos
	const sentinelState chunk.StateID = 9
	w.behaviors[0] = recordingBehavior{notified: &order}

	e := NewEngine(w, nil)
	pos := chunk.NewBlockPos(0, 0, 0)
	if !e.SetBlock(pos, sentinelState, UpdateNeighbors|UpdateKnownShape) {
		t.Fatal("expected SetBlock to report a change")
	}

	want := []chunk.BlockPos{
		pos.Side(chunk.West),
		pos.Side(chunk.East),
		pos.Side(chunk.Down),
		pos.Side(chunk.Up),
		pos.Side(chunk.North),
		pos.Side(chunk.South),
	}
	if len(order) != len(want) {
		t.Fatalf("expected %d neighbor notifications, got %d", len(want), len(order))
	}
	for i, p := range want {
		if order[i] != p {
			t.Fatalf("notification %d: got %v want %v", i, order[i], p)
		}
	}
}

func TestSetBlockNoOpWhenUnchanged(t *testing.T) {
	w := newFakeWorld()
	pos := chunk.NewBlockPos(1, 1, 1)
	w.states[pos] = 5
	e := NewEngine(w, nil)
	if e.SetBlock(pos, 5, UpdateAll) {
		t.Fatal("expected no-op SetBlock to report unchanged")
	}
}

func TestSetBlockOutOfBoundsFails(t *testing.T) {
	w := newFakeWorld()
	e := NewEngine(w, nil)
	pos := chunk.NewBlockPos(0, 1000, 0)
	if e.SetBlock(pos, 1, UpdateAll) {
		t.Fatal("expected out-of-bounds SetBlock to fail")
	}
}

func TestSetBlockWithLimitZeroFails(t *testing.T) {
	w := newFakeWorld()
	e := NewEngine(w, nil)
	pos := chunk.NewBlockPos(0, 0, 0)
	if e.SetBlockWithLimit(pos, 1, UpdateAll, 0) {
		t.Fatal("expected zero update limit to fail")
	}
}

// shapeAwareBehavior breaks to air whenever the block below is air,
// exercising the recursive shape-update cascade (§4.6.3 step 4).
type shapeAwareBehavior struct {
	block.DefaultBehavior
	airState  chunk.StateID
	selfState chunk.StateID
}

func (b shapeAwareBehavior) UpdateShape(state chunk.StateID, w block.World, pos chunk.BlockPos, dir chunk.Direction, _ chunk.BlockPos, _ chunk.StateID) chunk.StateID {
	if dir == chunk.Down && w.BlockState(pos.Side(chunk.Down)) == b.airState {
		return b.airState
	}
	return state
}

func TestShapeUpdateCascadesWhenSupportRemoved(t *testing.T) {
	w := newFakeWorld()
	const air, sign, grass chunk.StateID = 0, 1, 2

	signPos := chunk.NewBlockPos(0, 65, 0)
	grassPos := chunk.NewBlockPos(0, 64, 0)
	w.states[signPos] = sign
	w.states[grassPos] = grass
	w.behaviors[sign] = shapeAwareBehavior{airState: air, selfState: sign}

	e := NewEngine(w, nil)
	if !e.SetBlock(grassPos, air, UpdateAll) {
		t.Fatal("expected removing the grass block to succeed")
	}
	if got := w.BlockState(signPos); got != air {
		t.Fatalf("expected sign to break to air after support removed, got %d", got)
	}
}

func TestTickClockModes(t *testing.T) {
	c := NewTickClock()
	if c.Mode() != Running {
		t.Fatalf("expected Running initially, got %v", c.Mode())
	}

	c.SetFrozen(true)
	if !c.IsFrozen() || c.ShouldTick() {
		t.Fatal("expected frozen clock to refuse ticking")
	}

	if !c.StepGameIfPaused(2) {
		t.Fatal("expected step to start while frozen")
	}
	if !c.ShouldTick() {
		t.Fatal("expected first step tick to run")
	}
	if !c.ShouldTick() {
		t.Fatal("expected second step tick to run")
	}
	if c.ShouldTick() {
		t.Fatal("expected clock to refreeze after stepping budget is spent")
	}
	if !c.IsFrozen() {
		t.Fatal("expected clock back in Frozen after stepping completes")
	}

	c.SetFrozen(false)
	if !c.StartSprint(3) {
		t.Fatal("expected sprint to start")
	}
	ticks := 0
	for c.IsSprinting() {
		if !c.ShouldTick() {
			t.Fatal("sprinting clock should always tick")
		}
		ticks++
	}
	if ticks != 3 {
		t.Fatalf("expected exactly 3 sprint ticks, got %d", ticks)
	}
	if c.Mode() != Running {
		t.Fatalf("expected Running after sprint completes, got %v", c.Mode())
	}
}

func TestTickClockRateClamped(t *testing.T) {
	c := NewTickClock()
	c.SetTickRate(20000)
	if rate := c.TickRate(); rate != 10000 {
		t.Fatalf("expected rate clamped to 10000, got %v", rate)
	}
	c.SetTickRate(-5)
	if rate := c.TickRate(); rate <= 0 {
		t.Fatalf("expected rate clamped to a positive value, got %v", rate)
	}
}

func TestTickClockPercentiles(t *testing.T) {
	c := NewTickClock()
	for i := 1; i <= 100; i++ {
		c.RecordTickDuration(time.Duration(i) * time.Millisecond)
	}
	p50, p95, p99, n := c.Percentiles()
	if n != 100 {
		t.Fatalf("expected 100 samples, got %d", n)
	}
	if p50 <= 0 || p95 <= p50 || p99 < p95 {
		t.Fatalf("expected increasing percentiles, got p50=%d p95=%d p99=%d", p50, p95, p99)
	}
}
