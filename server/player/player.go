package player

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/blockforge/core/server/chunk"
)

// DefaultViewDistance is the view distance (in chunks) a player uses until
// told otherwise, matching the vanilla client default.
const DefaultViewDistance = 10

// DefaultChunksPerTick bounds how many pending chunks the chunk sender
// drains per tick (§4.7 "bounded by a configurable per-tick send rate").
const DefaultChunksPerTick = 4

// GameProfile identifies a player independent of any single connection.
type GameProfile struct {
	UUID uuid.UUID
	Name string
}

// Player is a connected player: identity, connection, live transform, and
// the chunk-streaming queue that feeds it chunk payloads as they reach
// Full (§4.7 "per-player chunk streaming").
type Player struct {
	EntityID   int32
	Profile    GameProfile
	Connection Connection

	mu            sync.Mutex
	pos           mgl64.Vec3
	yaw, pitch    float32
	lastChunkPos  chunk.ChunkPos
	viewDistance  int32
	pendingChunks []chunk.ChunkPos

	GameMode   GameMode
	Health     float32
	Abilities  Abilities
	Dimension  string
}

// GameMode mirrors vanilla's integer game mode encoding.
type GameMode int32

const (
	Survival GameMode = iota
	Creative
	Adventure
	Spectator
)

// Abilities are the subset of player abilities the core tracks (§6.5).
type Abilities struct {
	Invulnerable bool
	Flying       bool
	MayFly       bool
	Instabuild   bool
	MayBuild     bool
	FlySpeed     float32
	WalkSpeed    float32
}

// DefaultAbilities returns the ability set a freshly joined survival player
// starts with.
func DefaultAbilities() Abilities {
	return Abilities{MayBuild: true, FlySpeed: 0.05, WalkSpeed: 0.1}
}

// New creates a Player at pos with the default view distance and survival
// abilities.
func New(entityID int32, profile GameProfile, conn Connection, pos mgl64.Vec3) *Player {
	return &Player{
		EntityID:     entityID,
		Profile:      profile,
		Connection:   conn,
		pos:          pos,
		lastChunkPos: chunk.NewBlockPos(int32(pos.X()), int32(pos.Y()), int32(pos.Z())).Chunk(),
		viewDistance: DefaultViewDistance,
		GameMode:     Survival,
		Health:       20,
		Abilities:    DefaultAbilities(),
		Dimension:    "minecraft:overworld",
	}
}

// Position returns the player's current absolute position.
func (p *Player) Position() mgl64.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Rotation returns the player's current yaw and pitch, in degrees.
func (p *Player) Rotation() (yaw, pitch float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.yaw, p.pitch
}

// ChunkPos returns the chunk the player currently occupies.
func (p *Player) ChunkPos() chunk.ChunkPos {
	p.mu.Lock()
	defer p.mu.Unlock()
	return chunk.NewBlockPos(int32(p.pos.X()), int32(p.pos.Y()), int32(p.pos.Z())).Chunk()
}

// ViewDistance returns the player's current view distance, in chunks.
func (p *Player) ViewDistance() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewDistance
}

// SetViewDistance updates the player's view distance.
func (p *Player) SetViewDistance(distance int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewDistance = distance
}

// Move updates the player's position and rotation, returning the previous
// chunk position so callers can diff views (§4.7).
func (p *Player) Move(pos mgl64.Vec3, yaw, pitch float32) (previousChunk chunk.ChunkPos) {
	p.mu.Lock()
	defer p.mu.Unlock()
	previousChunk = chunk.NewBlockPos(int32(p.pos.X()), int32(p.pos.Y()), int32(p.pos.Z())).Chunk()
	p.pos, p.yaw, p.pitch = pos, yaw, pitch
	p.lastChunkPos = chunk.NewBlockPos(int32(pos.X()), int32(pos.Y()), int32(pos.Z())).Chunk()
	return previousChunk
}

// QueueChunkSend appends a chunk position to the player's pending chunk
// send queue (§4.7).
func (p *Player) QueueChunkSend(pos chunk.ChunkPos) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingChunks = append(p.pendingChunks, pos)
}

// DrainPendingChunks removes and returns up to max pending chunk positions,
// in FIFO order, for the chunk sender to serialize this tick.
func (p *Player) DrainPendingChunks(max int) []chunk.ChunkPos {
	p.mu.Lock()
	defer p.mu.Unlock()
	if max > len(p.pendingChunks) {
		max = len(p.pendingChunks)
	}
	out := append([]chunk.ChunkPos(nil), p.pendingChunks[:max]...)
	p.pendingChunks = p.pendingChunks[max:]
	return out
}

// CancelPendingChunk removes pos from the pending send queue, if present
// (used when a chunk leaves view before it was ever sent).
func (p *Player) CancelPendingChunk(pos chunk.ChunkPos) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.pendingChunks {
		if c == pos {
			p.pendingChunks = append(p.pendingChunks[:i], p.pendingChunks[i+1:]...)
			return
		}
	}
}
