package block

import (
	"testing"

	"github.com/blockforge/core/server/chunk"
)

type fakeWorld struct {
	states map[chunk.BlockPos]chunk.StateID
}

func (f fakeWorld) BlockState(pos chunk.BlockPos) chunk.StateID {
	if s, ok := f.states[pos]; ok {
		return s
	}
	return 0
}

func TestDefaultBehaviorIsAllNoOp(t *testing.T) {
	var b DefaultBehavior
	pos := chunk.NewBlockPos(0, 0, 0)
	w := fakeWorld{}
	if got := b.UpdateShape(5, w, pos, chunk.Up, pos, 7); got != 5 {
		t.Fatalf("UpdateShape changed state: got %d want 5", got)
	}
	if b.IsRandomlyTicking(5) {
		t.Fatal("DefaultBehavior should never randomly tick")
	}
	if b.HasBlockEntity() {
		t.Fatal("DefaultBehavior should have no block entity")
	}
	b.HandleNeighborChanged(5, w, pos, 9, false)
	b.RandomTick(5, w, pos)
}

func TestTableFallsBackToDefault(t *testing.T) {
	reg := chunk.NewRegistry()
	stone, _ := reg.Register("minecraft:stone", nil, 0)
	reg.Freeze()

	table := NewTable()
	b := table.Behavior(stone)
	if _, ok := b.(DefaultBehavior); !ok {
		t.Fatalf("expected DefaultBehavior for unregistered block, got %T", b)
	}
}

func TestTableSetOverridesDefault(t *testing.T) {
	reg := chunk.NewRegistry()
	sign, _ := reg.Register("minecraft:sign", nil, 0)
	reg.Freeze()

	table := NewTable()
	table.Set(sign, SignBehavior{})

	b, err := table.BehaviorForState(reg, sign.Default())
	if err != nil {
		t.Fatal(err)
	}
	if !b.HasBlockEntity() {
		t.Fatal("expected sign behavior to report HasBlockEntity")
	}
}

func TestTorchBreaksWhenSupportRemoved(t *testing.T) {
	const air, torch, stone chunk.StateID = 0, 1, 2
	below := chunk.NewBlockPos(0, 63, 0)
	pos := below.Side(chunk.Up)

	behavior := TorchBehavior{AirState: air}

	w := fakeWorld{states: map[chunk.BlockPos]chunk.StateID{below: stone}}
	if got := behavior.UpdateShape(torch, w, pos, chunk.Down, below, air); got != torch {
		t.Fatalf("torch should survive on a solid block, got state %d", got)
	}

	w2 := fakeWorld{states: map[chunk.BlockPos]chunk.StateID{below: air}}
	if got := behavior.UpdateShape(torch, w2, pos, chunk.Down, below, air); got != air {
		t.Fatalf("torch should break to air when support is removed, got state %d", got)
	}
}

func TestTorchIsRandomlyTicking(t *testing.T) {
	behavior := TorchBehavior{AirState: 0}
	if !behavior.IsRandomlyTicking(1) {
		t.Fatal("torch should opt into random ticking")
	}
}

func TestSignSaveLoadRoundTrip(t *testing.T) {
	s := NewSign(chunk.NewBlockPos(1, 2, 3), "minecraft:sign")
	s.Front.Lines[0] = "Hello"
	s.Front.Lines[1] = "World"
	s.Front.Color = "red"
	s.Back.Lines[3] = "back line"
	s.Back.HasGlowText = true
	s.Waxed = true
	s.EditorUUID = "11111111-2222-3333-4444-555555555555"

	data := s.SaveNBT()

	restored := NewSign(chunk.NewBlockPos(1, 2, 3), "minecraft:sign")
	restored.LoadNBT(data)

	if restored.Front.Lines[0] != "Hello" || restored.Front.Lines[1] != "World" {
		t.Fatalf("front lines did not round-trip: %+v", restored.Front)
	}
	if restored.Front.Color != "red" {
		t.Fatalf("front color did not round-trip: %q", restored.Front.Color)
	}
	if restored.Back.Lines[3] != "back line" || !restored.Back.HasGlowText {
		t.Fatalf("back side did not round-trip: %+v", restored.Back)
	}
	if !restored.Waxed {
		t.Fatal("waxed flag did not round-trip")
	}
	if restored.EditorUUID != s.EditorUUID {
		t.Fatalf("editor uuid did not round-trip: got %q", restored.EditorUUID)
	}
}

func TestSignHasMessage(t *testing.T) {
	var side SignSide
	if side.HasMessage() {
		t.Fatal("empty side should report no message")
	}
	side.Lines[2] = "hi"
	if !side.HasMessage() {
		t.Fatal("side with a non-empty line should report a message")
	}
}
