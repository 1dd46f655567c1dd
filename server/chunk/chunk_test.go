package chunk

import "testing"

type testBlockEntity struct {
	pos  BlockPos
	data []byte
}

func (e *testBlockEntity) Pos() BlockPos    { return e.pos }
func (e *testBlockEntity) TypeKey() string  { return "test:sign" }
func (e *testBlockEntity) SaveNBT() []byte  { return e.data }
func (e *testBlockEntity) LoadNBT(d []byte) { e.data = d }

type testEntity struct {
	id   int32
	x, y, z float64
}

func (e *testEntity) EntityID() int32              { return e.id }
func (e *testEntity) Position() (float64, float64, float64) { return e.x, e.y, e.z }

func TestSetBlockAtTracksPendingAndDirty(t *testing.T) {
	c := New(NewChunkPos(0, 0), 0, 16, 1)
	if c.IsDirty() {
		t.Fatalf("a freshly created chunk must not be dirty")
	}

	pos := NewBlockPos(2, 4, 2)
	old, changed := c.SetBlockAt(pos, 5)
	if !changed {
		t.Fatalf("setting a new state should report a change")
	}
	if old != 0 {
		t.Fatalf("old state should have been air (0), got %d", old)
	}
	if !c.IsDirty() {
		t.Fatalf("chunk should be dirty after a block change")
	}

	pending := c.DrainPending()
	if len(pending) != 1 {
		t.Fatalf("expected exactly one section with pending changes, got %d", len(pending))
	}
	if c.HasPending() {
		t.Fatalf("pending set should be empty after DrainPending")
	}
}

func TestSetBlockAtNoopWhenUnchanged(t *testing.T) {
	c := New(NewChunkPos(0, 0), 0, 16, 1)
	pos := NewBlockPos(0, 0, 0)
	c.SetBlockAt(pos, 0)
	if c.HasPending() {
		t.Fatalf("setting a cell to the value it already holds must not produce a pending change")
	}
}

func TestAdvancePanicsOnRegression(t *testing.T) {
	c := New(NewChunkPos(0, 0), 0, 16, 1)
	c.Advance(Noise)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when moving status backward")
		}
	}()
	c.Advance(Empty)
}

func TestBlockEntityLifecycle(t *testing.T) {
	c := New(NewChunkPos(0, 0), 0, 16, 1)
	pos := NewBlockPos(1, 1, 1)
	be := &testBlockEntity{pos: pos, data: []byte("hello")}
	c.AddBlockEntity(be)

	got, ok := c.BlockEntity(pos)
	if !ok || got.SaveNBT() == nil {
		t.Fatalf("expected to retrieve the added block entity")
	}

	c.RemoveBlockEntity(pos)
	if _, ok := c.BlockEntity(pos); ok {
		t.Fatalf("block entity should be gone after removal")
	}
}

func TestEntityResidency(t *testing.T) {
	c := New(NewChunkPos(0, 0), 0, 16, 1)
	e := &testEntity{id: 42, x: 1, y: 2, z: 3}
	c.AddEntity(e)
	if len(c.Entities()) != 1 {
		t.Fatalf("expected one resident entity")
	}
	c.RemoveEntity(42)
	if len(c.Entities()) != 0 {
		t.Fatalf("expected no resident entities after removal")
	}
}

func TestInBounds(t *testing.T) {
	c := New(NewChunkPos(1, 1), 0, 16, 1)
	if !c.InBounds(NewBlockPos(16, 5, 20)) {
		t.Fatalf("expected position inside chunk (1,1) to be in bounds")
	}
	if c.InBounds(NewBlockPos(0, 5, 0)) {
		t.Fatalf("position in a different chunk should not be in bounds")
	}
	if c.InBounds(NewBlockPos(16, 100, 20)) {
		t.Fatalf("position above world height should not be in bounds")
	}
}
