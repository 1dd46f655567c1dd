package world

import "github.com/blockforge/core/server/chunk"

// These are the opaque domain objects the world core hands to
// player.Connection for encoding (§6.2: "packet encoding... are the
// responsibility of the protocol layer"). The world package never encodes
// them; it only decides when one is due.

// BlockChangePacket carries a chunk's accumulated per-section block
// changes for one broadcast cycle (§4.6.3, §6.3).
type BlockChangePacket struct {
	Pos            chunk.ChunkPos
	SectionChanges map[int][]uint16
}

// ChunkDataPacket carries a fully generated chunk to a streaming client
// (§4.7).
type ChunkDataPacket struct {
	Pos   chunk.ChunkPos
	Chunk *chunk.Chunk
}

// SpawnEntityPacket introduces a tracked entity newly in view (§4.7).
type SpawnEntityPacket struct {
	EntityID int32
	TypeKey  string
	Pos      [3]float64
}

// DespawnEntityPacket removes a tracked entity that left view (§4.7).
type DespawnEntityPacket struct {
	EntityID int32
}
