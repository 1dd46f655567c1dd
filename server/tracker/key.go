package tracker

import (
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/blockforge/core/server/chunk"
)

// chunkKey packs a ChunkPos into a single fnv1a hash, used as the map key
// for both PlayerAreaMap and EntityTracker's chunk-keyed indices. Precomputing
// a fast 64-bit hash ourselves, rather than keying directly on the
// ChunkPos struct, avoids the runtime's generic (reflection-based) map
// hash on a hot path that runs on every player move and entity tick.
func chunkKey(pos chunk.ChunkPos) uint64 {
	h := fnv1a.HashUint32(uint32(pos.X))
	return fnv1a.AddUint32(h, uint32(pos.Z))
}
