// Package ticket implements the chunk ticket propagator (§4.4): it maps
// player/forced tickets to per-chunk "level" integers via Chebyshev-distance
// radius propagation, and reports level changes once per tick.
package ticket

import (
	"sort"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/blockforge/core/server/chunk"
)

// LevelChange is one chunk's level transition produced by a RunAllUpdates
// pass: NewLevel is nil if the chunk has no remaining ticket coverage at all
// (it should unload).
type LevelChange struct {
	Pos      chunk.ChunkPos
	NewLevel *int32
}

// Manager tracks ticket sources per chunk position and the propagated level
// they produce at every chunk within range. It is safe for concurrent use:
// every method takes the manager's own mutex (§5: "ticket manager: one sync
// mutex; updates batch per tick").
type Manager struct {
	mu sync.Mutex

	tickets map[chunk.ChunkPos][]int32
	levels  map[chunk.ChunkPos]int32
	dirty   bool
}

// NewManager creates an empty propagator.
func NewManager() *Manager {
	return &Manager{
		tickets: make(map[chunk.ChunkPos][]int32),
		levels:  make(map[chunk.ChunkPos]int32),
	}
}

// AddTicket registers a ticket source at pos with the given level. Multiple
// tickets may coexist at the same position. Levels above chunk.MaxLevel are
// ignored, matching §4.4.
func (m *Manager) AddTicket(pos chunk.ChunkPos, level int32) {
	if level > chunk.MaxLevel {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[pos] = append(m.tickets[pos], level)
	m.dirty = true
}

// RemoveTicket removes one ticket matching (pos, level). Returns whether a
// matching ticket was found and removed.
func (m *Manager) RemoveTicket(pos chunk.ChunkPos, level int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels, ok := m.tickets[pos]
	if !ok {
		return false
	}
	i := slices.Index(levels, level)
	if i < 0 {
		return false
	}
	levels[i] = levels[len(levels)-1]
	levels = levels[:len(levels)-1]
	if len(levels) == 0 {
		delete(m.tickets, pos)
	} else {
		m.tickets[pos] = levels
	}
	m.dirty = true
	return true
}

// RemoveAllAt removes every ticket at pos, returning the levels that were
// removed.
func (m *Manager) RemoveAllAt(pos chunk.ChunkPos) []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels, ok := m.tickets[pos]
	if !ok {
		return nil
	}
	delete(m.tickets, pos)
	m.dirty = true
	return levels
}

// Ticket returns the minimum ticket level registered at pos, if any.
func (m *Manager) Ticket(pos chunk.ChunkPos) (int32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels, ok := m.tickets[pos]
	if !ok || len(levels) == 0 {
		return 0, false
	}
	min := levels[0]
	for _, l := range levels[1:] {
		if l < min {
			min = l
		}
	}
	return min, true
}

// TicketCount returns the total number of individual tickets registered
// across every position.
func (m *Manager) TicketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, levels := range m.tickets {
		n += len(levels)
	}
	return n
}

// RunAllUpdates rebuilds the propagated level map from scratch if the
// ticket set is dirty, and returns the level changes since the previous
// call (§4.4: "a full rebuild keeps invariants obviously correct"). It is a
// no-op, returning nil, when nothing has changed since the last call.
func (m *Manager) RunAllUpdates() []LevelChange {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}
	m.dirty = false

	oldLevels := m.levels
	newLevels := make(map[chunk.ChunkPos]int32, len(oldLevels))

	for source, levels := range m.tickets {
		min := levels[0]
		for _, l := range levels[1:] {
			if l < min {
				min = l
			}
		}
		radius := chunk.MaxLevel - min
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				dist := dx
				if dz > dist {
					dist = dz
				}
				if -dx > dist {
					dist = -dx
				}
				if -dz > dist {
					dist = -dz
				}
				level := min + dist
				pos := source.Add(dx, dz)
				if cur, ok := newLevels[pos]; !ok || level < cur {
					newLevels[pos] = level
				}
			}
		}
	}
	m.levels = newLevels

	var changes []LevelChange
	for pos, level := range newLevels {
		level := level
		if old, ok := oldLevels[pos]; !ok || old != level {
			changes = append(changes, LevelChange{Pos: pos, NewLevel: &level})
		}
	}
	for pos := range oldLevels {
		if _, ok := newLevels[pos]; !ok {
			changes = append(changes, LevelChange{Pos: pos, NewLevel: nil})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i].Pos, changes[j].Pos
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return changes
}

// Level returns the propagated level at pos. Callers must call
// RunAllUpdates at least once after the last mutation for this to reflect
// current state.
func (m *Manager) Level(pos chunk.ChunkPos) (int32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	level, ok := m.levels[pos]
	return level, ok
}

// Dirty reports whether ticket changes are pending a RunAllUpdates pass.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}
