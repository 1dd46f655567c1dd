package ticket

import (
	"testing"

	"github.com/blockforge/core/server/chunk"
)

func level(m *Manager, x, z int32) (int32, bool) {
	return m.Level(chunk.NewChunkPos(x, z))
}

func TestSingleTicketPropagation(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.RunAllUpdates()

	cases := []struct {
		x, z int32
		want int32
	}{
		{0, 0, 0},
		{-1, -1, 1},
		{0, -1, 1},
		{1, 0, 1},
		{-2, -2, 2},
	}
	for _, c := range cases {
		got, ok := level(m, c.x, c.z)
		if !ok || got != c.want {
			t.Fatalf("level(%d,%d) = %v,%v want %d", c.x, c.z, got, ok, c.want)
		}
	}
}

func TestDeferredUpdates(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	if !m.Dirty() {
		t.Fatal("expected dirty after AddTicket")
	}
	if _, ok := level(m, 0, 0); ok {
		t.Fatal("level should not be visible before RunAllUpdates")
	}
	m.RunAllUpdates()
	if m.Dirty() {
		t.Fatal("expected clean after RunAllUpdates")
	}
	if got, ok := level(m, 0, 0); !ok || got != 0 {
		t.Fatalf("level = %v,%v want 0", got, ok)
	}
}

func TestMultipleTicketsSamePosition(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 2)
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.AddTicket(chunk.NewChunkPos(0, 0), 1)
	m.RunAllUpdates()

	min, ok := m.Ticket(chunk.NewChunkPos(0, 0))
	if !ok || min != 0 {
		t.Fatalf("Ticket = %v,%v want 0", min, ok)
	}
	if got, ok := level(m, 0, 0); !ok || got != 0 {
		t.Fatalf("level = %v,%v want 0", got, ok)
	}
}

func TestOverlappingPropagation(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.AddTicket(chunk.NewChunkPos(3, 0), 0)
	m.RunAllUpdates()

	if got, ok := level(m, 1, 0); !ok || got != 1 {
		t.Fatalf("level(1,0) = %v,%v want 1", got, ok)
	}
	if got, ok := level(m, 2, 0); !ok || got != 1 {
		t.Fatalf("level(2,0) = %v,%v want 1", got, ok)
	}
}

func TestRemoveTicket(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.AddTicket(chunk.NewChunkPos(5, 0), 0)
	m.RunAllUpdates()

	if got, ok := level(m, 0, 0); !ok || got != 0 {
		t.Fatalf("level(0,0) = %v,%v want 0", got, ok)
	}

	if !m.RemoveTicket(chunk.NewChunkPos(0, 0), 0) {
		t.Fatal("expected RemoveTicket to find the ticket")
	}
	m.RunAllUpdates()

	if got, ok := level(m, 0, 0); !ok || got != 5 {
		t.Fatalf("level(0,0) after removal = %v,%v want 5 (from the ticket at (5,0))", got, ok)
	}
}

func TestRemoveAllTicketsAtPosition(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.RunAllUpdates()

	m.RemoveAllAt(chunk.NewChunkPos(0, 0))
	m.RunAllUpdates()

	if _, ok := level(m, 0, 0); ok {
		t.Fatal("expected chunk unloaded after removing all tickets")
	}
}

func TestMonotoneLevelUnderAddition(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(10, 10), 5)
	m.RunAllUpdates()
	before, _ := level(m, 12, 10)

	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.RunAllUpdates()
	after, ok := level(m, 12, 10)
	if !ok || after > before {
		t.Fatalf("level must not increase after adding a ticket: before=%d after=%d", before, after)
	}
}

func TestLevelChangesReportUnload(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.RunAllUpdates()

	m.RemoveAllAt(chunk.NewChunkPos(0, 0))
	changes := m.RunAllUpdates()
	found := false
	for _, c := range changes {
		if c.Pos == chunk.NewChunkPos(0, 0) {
			found = true
			if c.NewLevel != nil {
				t.Fatalf("expected NewLevel nil for unload, got %v", *c.NewLevel)
			}
		}
	}
	if !found {
		t.Fatal("expected a LevelChange for the unloaded chunk")
	}
}

func TestNoRecalculationWhenClean(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), 0)
	m.RunAllUpdates()
	if m.Dirty() {
		t.Fatal("expected clean")
	}
	if changes := m.RunAllUpdates(); changes != nil {
		t.Fatalf("expected no changes on a clean rerun, got %v", changes)
	}
}

func TestLevelsIgnoredAboveMaxLevel(t *testing.T) {
	m := NewManager()
	m.AddTicket(chunk.NewChunkPos(0, 0), chunk.MaxLevel+1)
	m.RunAllUpdates()
	if _, ok := level(m, 0, 0); ok {
		t.Fatal("ticket above MaxLevel must be ignored")
	}
}
