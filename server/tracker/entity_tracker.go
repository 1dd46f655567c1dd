package tracker

import (
	"sync"

	"github.com/blockforge/core/server/chunk"
)

// TrackedEntity is the minimal view the tracker needs of a live entity: its
// id and tracking range. Package entity's *Entity satisfies
// this directly.
type TrackedEntity interface {
	EntityID() int32
	TrackingRangeChunks() int32
}

type trackedEntry struct {
	entity           TrackedEntity
	rangeChunks      int32
	registeredChunks map[chunk.ChunkPos]struct{}

	seenByMu sync.Mutex
	seenBy   map[int32]struct{}
}

// EntityTracker is a chunk-keyed spatial index mirroring PlayerAreaMap, but
// for entities: an entity is registered in every chunk within its type's
// tracking range, so a player's view change only needs to inspect the
// added/removed chunks rather than every live entity (§4.7 "Entity
// tracker").
type EntityTracker struct {
	mu      sync.Mutex
	chunks  map[uint64]map[int32]struct{}
	entries map[int32]*trackedEntry
}

// NewEntityTracker creates an empty entity tracker.
func NewEntityTracker() *EntityTracker {
	return &EntityTracker{
		chunks:  make(map[uint64]map[int32]struct{}),
		entries: make(map[int32]*trackedEntry),
	}
}

// Add starts tracking e, registering it in every chunk within its tracking
// range of its current chunk.
func (t *EntityTracker) Add(e TrackedEntity, pos chunk.ChunkPos) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rangeChunks := e.TrackingRangeChunks()
	entry := &trackedEntry{
		entity:           e,
		rangeChunks:      rangeChunks,
		registeredChunks: make(map[chunk.ChunkPos]struct{}),
		seenBy:           make(map[int32]struct{}),
	}
	for _, c := range squareAround(pos, rangeChunks) {
		entry.registeredChunks[c] = struct{}{}
		t.addToChunkLocked(c, e.EntityID())
	}
	t.entries[e.EntityID()] = entry
}

// Remove stops tracking the entity, removing it from every chunk index and
// returning the set of player ids it was visible to, so the caller can send
// despawn packets (§4.7 "send despawn to every player in the entity's
// seen_by").
func (t *EntityTracker) Remove(entityID int32) []int32 {
	t.mu.Lock()
	entry, ok := t.entries[entityID]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	delete(t.entries, entityID)
	for c := range entry.registeredChunks {
		t.removeFromChunkLocked(c, entityID)
	}
	t.mu.Unlock()

	entry.seenByMu.Lock()
	defer entry.seenByMu.Unlock()
	out := make([]int32, 0, len(entry.seenBy))
	for id := range entry.seenBy {
		out = append(out, id)
	}
	return out
}

// Move updates an entity's chunk-index registration after it crosses from
// oldPos to newPos.
func (t *EntityTracker) Move(entityID int32, oldPos, newPos chunk.ChunkPos) {
	if oldPos == newPos {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[entityID]
	if !ok {
		return
	}
	oldChunks := squareAround(oldPos, entry.rangeChunks)
	newChunks := squareAround(newPos, entry.rangeChunks)
	newSet := make(map[chunk.ChunkPos]struct{}, len(newChunks))
	for _, c := range newChunks {
		newSet[c] = struct{}{}
	}
	oldSet := make(map[chunk.ChunkPos]struct{}, len(oldChunks))
	for _, c := range oldChunks {
		oldSet[c] = struct{}{}
	}

	for c := range oldSet {
		if _, stillIn := newSet[c]; !stillIn {
			t.removeFromChunkLocked(c, entityID)
			delete(entry.registeredChunks, c)
		}
	}
	for c := range newSet {
		if _, wasIn := oldSet[c]; !wasIn {
			t.addToChunkLocked(c, entityID)
			entry.registeredChunks[c] = struct{}{}
		}
	}
}

// entityIDsInChunk returns a snapshot of entity ids registered in pos.
func (t *EntityTracker) entityIDsInChunk(pos chunk.ChunkPos) []int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.chunks[chunkKey(pos)]
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (t *EntityTracker) entry(entityID int32) (*trackedEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[entityID]
	return e, ok
}

// ViewChanged handles a player's view change: every entity registered in a
// removed chunk that this player had seen loses the player from its seen_by
// set and is returned for despawn, whether or not it is also registered in
// a chunk that stays in view; entities in added chunks that this player has
// not seen gain it and are returned for spawn. Callers use the returned
// spawn/despawn lists to emit packets (§4.7).
func (t *EntityTracker) ViewChanged(playerID int32, added, removed []chunk.ChunkPos) (toSpawn, toDespawn []TrackedEntity) {
	for _, c := range removed {
		for _, id := range t.entityIDsInChunk(c) {
			entry, ok := t.entry(id)
			if !ok {
				continue
			}
			entry.seenByMu.Lock()
			if _, wasSeen := entry.seenBy[playerID]; wasSeen {
				delete(entry.seenBy, playerID)
				toDespawn = append(toDespawn, entry.entity)
			}
			entry.seenByMu.Unlock()
		}
	}

	for _, c := range added {
		for _, id := range t.entityIDsInChunk(c) {
			if id == playerID {
				continue
			}
			entry, ok := t.entry(id)
			if !ok {
				continue
			}
			entry.seenByMu.Lock()
			if _, alreadySeen := entry.seenBy[playerID]; !alreadySeen {
				entry.seenBy[playerID] = struct{}{}
				toSpawn = append(toSpawn, entry.entity)
			}
			entry.seenByMu.Unlock()
		}
	}
	return toSpawn, toDespawn
}

// Leave removes playerID from every entity's seen_by set.
func (t *EntityTracker) Leave(playerID int32) {
	t.mu.Lock()
	entries := make([]*trackedEntry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	t.mu.Unlock()

	for _, entry := range entries {
		entry.seenByMu.Lock()
		delete(entry.seenBy, playerID)
		entry.seenByMu.Unlock()
	}
}

// Count returns the number of tracked entities.
func (t *EntityTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *EntityTracker) addToChunkLocked(pos chunk.ChunkPos, entityID int32) {
	key := chunkKey(pos)
	set, ok := t.chunks[key]
	if !ok {
		set = make(map[int32]struct{})
		t.chunks[key] = set
	}
	set[entityID] = struct{}{}
}

func (t *EntityTracker) removeFromChunkLocked(pos chunk.ChunkPos, entityID int32) {
	key := chunkKey(pos)
	set, ok := t.chunks[key]
	if !ok {
		return
	}
	delete(set, entityID)
	if len(set) == 0 {
		delete(t.chunks, key)
	}
}

// squareAround returns every ChunkPos within Chebyshev distance rangeChunks
// of center, matching the original's nested dx/dz loop.
func squareAround(center chunk.ChunkPos, rangeChunks int32) []chunk.ChunkPos {
	out := make([]chunk.ChunkPos, 0, (2*rangeChunks+1)*(2*rangeChunks+1))
	for dx := -rangeChunks; dx <= rangeChunks; dx++ {
		for dz := -rangeChunks; dz <= rangeChunks; dz++ {
			out = append(out, chunk.NewChunkPos(center.X+dx, center.Z+dz))
		}
	}
	return out
}
