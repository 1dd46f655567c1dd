// Package entity implements the world entity data model: identity,
// transform (position/velocity/rotation), and typed synced data (§6.4's
// entity side of the hook table, and the tracker's spawn-packet payload).
package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// DefaultTrackingRangeChunks is the tracking range used when a Type doesn't
// specify one, matching common mob ranges in the original registry data.
const DefaultTrackingRangeChunks = 8

// Type describes the immutable, registry-level properties of an entity
// kind: its protocol type key and how far (in chunks) it is registered for
// tracking (§4.7 "entities are registered in all chunks within their type's
// tracking range, typically 5-10 chunks").
type Type struct {
	Key                 string
	TrackingRangeChunks int32
}

// Entity is a single instance of a world entity: its identity, current
// transform, and any typed data synced to tracking clients. The chunk
// package only sees it through chunk.Entity; this package owns the full
// model.
type Entity struct {
	id   int32
	uid  uuid.UUID
	kind Type

	mu       sync.RWMutex
	pos      mgl64.Vec3
	vel      mgl64.Vec3
	yaw      float32
	pitch    float32
	onGround bool

	dataMu sync.RWMutex
	data   map[uint8]any
}

// New creates an entity of the given type with the given server-assigned
// id, at pos, facing (yaw, pitch).
func New(id int32, kind Type, pos mgl64.Vec3, yaw, pitch float32) *Entity {
	if kind.TrackingRangeChunks <= 0 {
		kind.TrackingRangeChunks = DefaultTrackingRangeChunks
	}
	return &Entity{
		id:   id,
		uid:  uuid.New(),
		kind: kind,
		pos:  pos,
		yaw:  yaw,
		pitch: pitch,
		data: make(map[uint8]any),
	}
}

// EntityID returns the entity's server-assigned id, satisfying chunk.Entity.
func (e *Entity) EntityID() int32 { return e.id }

// UUID returns the entity's persistent identity.
func (e *Entity) UUID() uuid.UUID { return e.uid }

// Type returns the entity's registry type.
func (e *Entity) Type() Type { return e.kind }

// TrackingRangeChunks returns how many chunks out, in every direction, this
// entity is registered for tracking.
func (e *Entity) TrackingRangeChunks() int32 { return e.kind.TrackingRangeChunks }

// Position returns the entity's current absolute position, satisfying
// chunk.Entity.
func (e *Entity) Position() (x, y, z float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos.X(), e.pos.Y(), e.pos.Z()
}

// Vec3Position returns the entity's position as an mgl64.Vec3.
func (e *Entity) Vec3Position() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos
}

// Velocity returns the entity's current velocity in blocks/tick.
func (e *Entity) Velocity() mgl64.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.vel
}

// Rotation returns the entity's yaw and pitch, in degrees.
func (e *Entity) Rotation() (yaw, pitch float32) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.yaw, e.pitch
}

// OnGround reports whether the entity is currently resting on a block.
func (e *Entity) OnGround() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.onGround
}

// SetTransform atomically updates position, velocity, rotation and ground
// state, as produced by a movement tick.
func (e *Entity) SetTransform(pos, vel mgl64.Vec3, yaw, pitch float32, onGround bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos, e.vel, e.yaw, e.pitch, e.onGround = pos, vel, yaw, pitch, onGround
}

// SetData stores a typed synced-data value at the given index (mirroring
// vanilla's entity metadata indices), to be flushed to tracking clients on
// the next PackData call.
func (e *Entity) SetData(index uint8, value any) {
	e.dataMu.Lock()
	defer e.dataMu.Unlock()
	e.data[index] = value
}

// Data returns the value currently stored at index, if any.
func (e *Entity) Data(index uint8) (any, bool) {
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	v, ok := e.data[index]
	return v, ok
}

// PackData returns a snapshot of every synced-data index currently set, for
// inclusion in a spawn or data-update packet (§4.7's send_spawn_packets).
func (e *Entity) PackData() map[uint8]any {
	e.dataMu.RLock()
	defer e.dataMu.RUnlock()
	out := make(map[uint8]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}
