package chunkmap

import "github.com/blockforge/core/server/chunk"

// NeighborCache is a square window of holders centered on a chunk, used by a
// GenerationTask to look up neighbors during a generation step without
// re-acquiring the map's lock for every lookup (§4.3's StaticCache2D).
type NeighborCache struct {
	center chunk.ChunkPos
	radius int
	cells  map[chunk.ChunkPos]*Holder
}

// NewNeighborCache builds a cache covering every position within radius
// (Chebyshev) of center, resolving each through lookup (typically
// ChunkMap.holderOrCreate).
func NewNeighborCache(center chunk.ChunkPos, radius int, lookup func(chunk.ChunkPos) *Holder) *NeighborCache {
	cells := make(map[chunk.ChunkPos]*Holder, (2*radius+1)*(2*radius+1))
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			p := center.Add(int32(dx), int32(dz))
			cells[p] = lookup(p)
		}
	}
	return &NeighborCache{center: center, radius: radius, cells: cells}
}

// Get returns the holder for pos if it falls within the cached window.
func (n *NeighborCache) Get(pos chunk.ChunkPos) *Holder {
	return n.cells[pos]
}

// Center returns the chunk position this cache is centered on.
func (n *NeighborCache) Center() chunk.ChunkPos { return n.center }

// Radius returns the cache's Chebyshev radius.
func (n *NeighborCache) Radius() int { return n.radius }
