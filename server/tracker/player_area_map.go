package tracker

import (
	"sync"

	"golang.org/x/exp/maps"

	"github.com/blockforge/core/server/chunk"
)

// PlayerAreaMap records which players' views currently contain which
// chunks (§4.7's "Player Area Map": `Map<ChunkPos, Set<PlayerId>>`).
type PlayerAreaMap struct {
	mu     sync.Mutex
	chunks map[uint64]map[int32]struct{}
}

// NewPlayerAreaMap creates an empty area map.
func NewPlayerAreaMap() *PlayerAreaMap {
	return &PlayerAreaMap{chunks: make(map[uint64]map[int32]struct{})}
}

// Join registers playerID as viewing every chunk in view (called on player
// join, with view already computed for the join position).
func (m *PlayerAreaMap) Join(playerID int32, view []chunk.ChunkPos) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range view {
		m.insertLocked(pos, playerID)
	}
}

// ViewChanged diffs a player's previous and new view, inserting into added
// chunks and removing from removed ones (§4.7 "On view change: diff old vs
// new view").
func (m *PlayerAreaMap) ViewChanged(playerID int32, added, removed []chunk.ChunkPos) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range removed {
		m.removeLocked(pos, playerID)
	}
	for _, pos := range added {
		m.insertLocked(pos, playerID)
	}
}

// Leave removes playerID from every chunk it was registered in.
func (m *PlayerAreaMap) Leave(playerID int32, view []chunk.ChunkPos) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pos := range view {
		m.removeLocked(pos, playerID)
	}
}

// PlayersViewing returns a snapshot of every player id whose view currently
// contains pos (§4.7 "get_tracking_players(chunk) returns a snapshot of
// ids"). The lock is released before this returns, so callers are free to
// send packets without holding it (§4.7 "Consistency").
func (m *PlayerAreaMap) PlayersViewing(pos chunk.ChunkPos) []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.chunks[chunkKey(pos)]
	if !ok {
		return nil
	}
	return maps.Keys(set)
}

func (m *PlayerAreaMap) insertLocked(pos chunk.ChunkPos, playerID int32) {
	key := chunkKey(pos)
	set, ok := m.chunks[key]
	if !ok {
		set = make(map[int32]struct{})
		m.chunks[key] = set
	}
	set[playerID] = struct{}{}
}

func (m *PlayerAreaMap) removeLocked(pos chunk.ChunkPos, playerID int32) {
	key := chunkKey(pos)
	set, ok := m.chunks[key]
	if !ok {
		return
	}
	delete(set, playerID)
	if len(set) == 0 {
		delete(m.chunks, key)
	}
}

// View computes every chunk within Chebyshev distance viewDistance of
// center (§4.7's PlayerChunkView).
func View(center chunk.ChunkPos, viewDistance int32) []chunk.ChunkPos {
	out := make([]chunk.ChunkPos, 0, (2*viewDistance+1)*(2*viewDistance+1))
	for dx := -viewDistance; dx <= viewDistance; dx++ {
		for dz := -viewDistance; dz <= viewDistance; dz++ {
			out = append(out, chunk.NewChunkPos(center.X+dx, center.Z+dz))
		}
	}
	return out
}

// DiffView splits the difference between an old and new view into the
// chunks newly in view and the chunks no longer in view.
func DiffView(oldView, newView []chunk.ChunkPos) (added, removed []chunk.ChunkPos) {
	oldSet := make(map[chunk.ChunkPos]struct{}, len(oldView))
	for _, p := range oldView {
		oldSet[p] = struct{}{}
	}
	newSet := make(map[chunk.ChunkPos]struct{}, len(newView))
	for _, p := range newView {
		newSet[p] = struct{}{}
	}
	for _, p := range newView {
		if _, ok := oldSet[p]; !ok {
			added = append(added, p)
		}
	}
	for _, p := range oldView {
		if _, ok := newSet[p]; !ok {
			removed = append(removed, p)
		}
	}
	return added, removed
}
