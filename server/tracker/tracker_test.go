package tracker

import (
	"sort"
	"testing"

	"github.com/blockforge/core/server/chunk"
)

func TestViewCoversChebyshevRadius(t *testing.T) {
	v := View(chunk.NewChunkPos(0, 0), 1)
	if len(v) != 9 {
		t.Fatalf("expected 9 chunks for radius 1, got %d", len(v))
	}
}

func TestDiffViewComputesAddedAndRemoved(t *testing.T) {
	old := View(chunk.NewChunkPos(0, 0), 1)
	next := View(chunk.NewChunkPos(1, 0), 1)
	added, removed := DiffView(old, next)

	if len(added) == 0 || len(removed) == 0 {
		t.Fatalf("expected both added and removed chunks, got added=%d removed=%d", len(added), len(removed))
	}
	for _, p := range added {
		for _, o := range old {
			if p == o {
				t.Fatalf("chunk %v should not have been in old view", p)
			}
		}
	}
}

func TestPlayerAreaMapJoinAndViewingSnapshot(t *testing.T) {
	m := NewPlayerAreaMap()
	view := View(chunk.NewChunkPos(0, 0), 1)
	m.Join(1, view)

	ids := m.PlayersViewing(chunk.NewChunkPos(0, 0))
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected player 1 viewing origin chunk, got %v", ids)
	}
	if ids := m.PlayersViewing(chunk.NewChunkPos(50, 50)); len(ids) != 0 {
		t.Fatalf("expected no players viewing far chunk, got %v", ids)
	}
}

func TestPlayerAreaMapViewChangedMovesRegistration(t *testing.T) {
	m := NewPlayerAreaMap()
	old := View(chunk.NewChunkPos(0, 0), 0)
	m.Join(1, old)

	next := View(chunk.NewChunkPos(5, 5), 0)
	added, removed := DiffView(old, next)
	m.ViewChanged(1, added, removed)

	if ids := m.PlayersViewing(chunk.NewChunkPos(0, 0)); len(ids) != 0 {
		t.Fatalf("expected player removed from old chunk, got %v", ids)
	}
	if ids := m.PlayersViewing(chunk.NewChunkPos(5, 5)); len(ids) != 1 {
		t.Fatalf("expected player registered in new chunk, got %v", ids)
	}
}

func TestPlayerAreaMapLeaveClearsAllRegistrations(t *testing.T) {
	m := NewPlayerAreaMap()
	view := View(chunk.NewChunkPos(0, 0), 1)
	m.Join(1, view)
	m.Leave(1, view)

	for _, pos := range view {
		if ids := m.PlayersViewing(pos); len(ids) != 0 {
			t.Fatalf("expected chunk %v empty after leave, got %v", pos, ids)
		}
	}
}

type fakeTrackedEntity struct {
	id          int32
	trackRange  int32
}

func (e fakeTrackedEntity) EntityID() int32            { return e.id }
func (e fakeTrackedEntity) TrackingRangeChunks() int32 { return e.trackRange }

func TestEntityTrackerAddRegistersAcrossRange(t *testing.T) {
	tr := NewEntityTracker()
	e := fakeTrackedEntity{id: 7, trackRange: 1}
	tr.Add(e, chunk.NewChunkPos(0, 0))

	for _, pos := range View(chunk.NewChunkPos(0, 0), 1) {
		ids := tr.entityIDsInChunk(pos)
		if len(ids) != 1 || ids[0] != 7 {
			t.Fatalf("expected entity 7 registered at %v, got %v", pos, ids)
		}
	}
	if tr.Count() != 1 {
		t.Fatalf("expected 1 tracked entity, got %d", tr.Count())
	}
}

func TestEntityTrackerViewChangedSpawnsAndDespawns(t *testing.T) {
	tr := NewEntityTracker()
	e := fakeTrackedEntity{id: 7, trackRange: 1}
	tr.Add(e, chunk.NewChunkPos(0, 0))

	spawned, despawned := tr.ViewChanged(1, View(chunk.NewChunkPos(0, 0), 1), nil)
	if len(spawned) != 1 || spawned[0].EntityID() != 7 {
		t.Fatalf("expected entity 7 spawned, got %v", spawned)
	}
	if len(despawned) != 0 {
		t.Fatalf("expected no despawns on first view, got %v", despawned)
	}

	spawned2, despawned2 := tr.ViewChanged(1, View(chunk.NewChunkPos(0, 0), 1), nil)
	if len(spawned2) != 0 {
		t.Fatalf("expected no duplicate spawn, got %v", spawned2)
	}
	_ = despawned2

	_, despawned3 := tr.ViewChanged(1, nil, View(chunk.NewChunkPos(0, 0), 1))
	if len(despawned3) != 1 || despawned3[0].EntityID() != 7 {
		t.Fatalf("expected entity 7 despawned when chunk leaves view, got %v", despawned3)
	}
}

func TestEntityTrackerMoveUpdatesRegistration(t *testing.T) {
	tr := NewEntityTracker()
	e := fakeTrackedEntity{id: 9, trackRange: 0}
	tr.Add(e, chunk.NewChunkPos(0, 0))
	tr.Move(9, chunk.NewChunkPos(0, 0), chunk.NewChunkPos(3, 0))

	if ids := tr.entityIDsInChunk(chunk.NewChunkPos(0, 0)); len(ids) != 0 {
		t.Fatalf("expected entity removed from old chunk, got %v", ids)
	}
	if ids := tr.entityIDsInChunk(chunk.NewChunkPos(3, 0)); len(ids) != 1 || ids[0] != 9 {
		t.Fatalf("expected entity registered at new chunk, got %v", ids)
	}
}

func TestEntityTrackerRemoveReturnsSeenBySnapshot(t *testing.T) {
	tr := NewEntityTracker()
	e := fakeTrackedEntity{id: 3, trackRange: 1}
	tr.Add(e, chunk.NewChunkPos(0, 0))
	tr.ViewChanged(1, View(chunk.NewChunkPos(0, 0), 1), nil)
	tr.ViewChanged(2, View(chunk.NewChunkPos(0, 0), 1), nil)

	seenBy := tr.Remove(3)
	sort.Slice(seenBy, func(i, j int) bool { return seenBy[i] < seenBy[j] })
	if len(seenBy) != 2 || seenBy[0] != 1 || seenBy[1] != 2 {
		t.Fatalf("expected both players in seen_by snapshot, got %v", seenBy)
	}
	if tr.Count() != 0 {
		t.Fatalf("expected tracker empty after remove, got count=%d", tr.Count())
	}
}

func TestEntityTrackerLeaveClearsPlayerFromAllEntities(t *testing.T) {
	tr := NewEntityTracker()
	e := fakeTrackedEntity{id: 3, trackRange: 1}
	tr.Add(e, chunk.NewChunkPos(0, 0))
	tr.ViewChanged(1, View(chunk.NewChunkPos(0, 0), 1), nil)
	tr.Leave(1)

	_, despawned := tr.ViewChanged(1, nil, View(chunk.NewChunkPos(0, 0), 1))
	if len(despawned) != 0 {
		t.Fatalf("expected no despawn after Leave already cleared player, got %v", despawned)
	}
}
