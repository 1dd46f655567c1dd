package player

import (
	"encoding/binary"
	"math"
)

// SnapshotVersion is bumped whenever Snapshot's on-disk layout changes
// (mirrors the original's PLAYER_DATA_VERSION).
const SnapshotVersion = 1

// InventorySlot is a single non-empty inventory slot (§6.5). Item payload
// encoding is out of this module's scope (inventory/menu UI is an explicit
// Non-goal); Payload is stored and returned opaque.
type InventorySlot struct {
	Slot    int8
	Payload []byte
}

// Snapshot is the persisted subset of a Player's state (§6.5:
// "position, motion, rotation, health, game mode, abilities, inventory,
// selected slot, dimension"). This package only encodes and decodes it; no
// code in this module reads it from or writes it to disk.
type Snapshot struct {
	Pos          [3]float64
	Motion       [3]float64
	Rotation     [2]float32
	OnGround     bool
	FallFlying   bool
	Health       float32
	GameMode     GameMode
	Abilities    Abilities
	Inventory    []InventorySlot
	SelectedSlot int32
	Dimension    string
	Version      int32
}

// FromPlayer extracts a Snapshot from a live Player (inventory is supplied
// by the caller since this package doesn't own inventory state).
func FromPlayer(p *Player, motion [3]float64, onGround, fallFlying bool, inventory []InventorySlot, selectedSlot int32) Snapshot {
	pos := p.Position()
	yaw, pitch := p.Rotation()
	return Snapshot{
		Pos:          [3]float64{pos.X(), pos.Y(), pos.Z()},
		Motion:       motion,
		Rotation:     [2]float32{yaw, pitch},
		OnGround:     onGround,
		FallFlying:   fallFlying,
		Health:       p.Health,
		GameMode:     p.GameMode,
		Abilities:    p.Abilities,
		Inventory:    inventory,
		SelectedSlot: selectedSlot,
		Dimension:    p.Dimension,
		Version:      SnapshotVersion,
	}
}

// Encode serializes the snapshot to a fixed-layout binary blob (§6.5's
// "Numeric fields are big-endian"; per the block-entity payload decision,
// no NBT library is wired in since nothing downstream parses this blob's
// internal structure beyond this package itself).
func (s Snapshot) Encode() []byte {
	buf := make([]byte, 0, 128+len(s.Inventory)*16)
	var scratch [8]byte

	putFloat64 := func(v float64) {
		binary.BigEndian.PutUint64(scratch[:], math.Float64bits(v))
		buf = append(buf, scratch[:8]...)
	}
	putFloat32 := func(v float32) {
		binary.BigEndian.PutUint32(scratch[:4], math.Float32bits(v))
		buf = append(buf, scratch[:4]...)
	}
	putInt32 := func(v int32) {
		binary.BigEndian.PutUint32(scratch[:4], uint32(v))
		buf = append(buf, scratch[:4]...)
	}
	putBool := func(v bool) {
		if v {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	putString := func(v string) {
		putInt32(int32(len(v)))
		buf = append(buf, v...)
	}

	putInt32(s.Version)
	for _, v := range s.Pos {
		putFloat64(v)
	}
	for _, v := range s.Motion {
		putFloat64(v)
	}
	for _, v := range s.Rotation {
		putFloat32(v)
	}
	putBool(s.OnGround)
	putBool(s.FallFlying)
	putFloat32(s.Health)
	putInt32(int32(s.GameMode))

	putBool(s.Abilities.Invulnerable)
	putBool(s.Abilities.Flying)
	putBool(s.Abilities.MayFly)
	putBool(s.Abilities.Instabuild)
	putBool(s.Abilities.MayBuild)
	putFloat32(s.Abilities.FlySpeed)
	putFloat32(s.Abilities.WalkSpeed)

	putInt32(int32(len(s.Inventory)))
	for _, slot := range s.Inventory {
		buf = append(buf, byte(slot.Slot))
		putInt32(int32(len(slot.Payload)))
		buf = append(buf, slot.Payload...)
	}

	putInt32(s.SelectedSlot)
	putString(s.Dimension)

	return buf
}

// DecodeSnapshot parses a blob produced by Snapshot.Encode.
func DecodeSnapshot(data []byte) (Snapshot, bool) {
	var s Snapshot
	r := &byteReader{data: data}

	s.Version = r.int32()
	for i := range s.Pos {
		s.Pos[i] = r.float64()
	}
	for i := range s.Motion {
		s.Motion[i] = r.float64()
	}
	for i := range s.Rotation {
		s.Rotation[i] = r.float32()
	}
	s.OnGround = r.bool()
	s.FallFlying = r.bool()
	s.Health = r.float32()
	s.GameMode = GameMode(r.int32())

	s.Abilities.Invulnerable = r.bool()
	s.Abilities.Flying = r.bool()
	s.Abilities.MayFly = r.bool()
	s.Abilities.Instabuild = r.bool()
	s.Abilities.MayBuild = r.bool()
	s.Abilities.FlySpeed = r.float32()
	s.Abilities.WalkSpeed = r.float32()

	n := r.int32()
	if int(n) > len(data) {
		r.failed = true
	}
	if n > 0 && !r.failed {
		s.Inventory = make([]InventorySlot, n)
		for i := int32(0); i < n; i++ {
			slot := InventorySlot{Slot: int8(r.byte())}
			plen := r.int32()
			slot.Payload = r.bytes(int(plen))
			s.Inventory[i] = slot
		}
	}

	s.SelectedSlot = r.int32()
	s.Dimension = r.string()

	return s, !r.failed
}

// byteReader is a minimal cursor over a snapshot blob; it sets failed
// rather than panicking on truncated input so DecodeSnapshot can report a
// clean false instead of crashing on a corrupt save file.
type byteReader struct {
	data   []byte
	pos    int
	failed bool
}

func (r *byteReader) take(n int) []byte {
	if r.failed || n < 0 || r.pos+n > len(r.data) {
		r.failed = true
		// Zeroed scratch wide enough for the fixed-size readers; its
		// contents are discarded once failed is set.
		return make([]byte, 8)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) byte() byte       { return r.take(1)[0] }
func (r *byteReader) bool() bool       { return r.byte() != 0 }
func (r *byteReader) int32() int32     { return int32(binary.BigEndian.Uint32(r.take(4))) }
func (r *byteReader) float32() float32 { return math.Float32frombits(binary.BigEndian.Uint32(r.take(4))) }
func (r *byteReader) float64() float64 { return math.Float64frombits(binary.BigEndian.Uint64(r.take(8))) }
func (r *byteReader) bytes(n int) []byte {
	return append([]byte(nil), r.take(n)...)
}
func (r *byteReader) string() string {
	n := r.int32()
	if n < 0 {
		r.failed = true
		return ""
	}
	return string(r.take(int(n)))
}
