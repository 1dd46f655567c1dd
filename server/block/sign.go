package block

import (
	"encoding/binary"

	"github.com/blockforge/core/server/chunk"
)

// SignLines is the number of text lines on each side of a sign.
const SignLines = 4

// SignSide holds one side's four text lines plus its dye color and glow
// flag (§ supplemented from the original's SignText).
type SignSide struct {
	Lines       [SignLines]string
	Color       string
	HasGlowText bool
}

// HasMessage reports whether any line on this side carries text.
func (s SignSide) HasMessage() bool {
	for _, l := range s.Lines {
		if l != "" {
			return true
		}
	}
	return false
}

// Sign is the block entity attached to sign/hanging-sign blocks: front and
// back text, wax state (which locks out further edits), and the uuid (as a
// string; package player owns uuid.UUID) of whichever player currently has
// the edit lock.
type Sign struct {
	pos         chunk.BlockPos
	typeKey     string
	Front, Back SignSide
	Waxed       bool
	EditorUUID  string
}

// NewSign creates an empty sign block entity at pos with the given type key
// ("minecraft:sign" or "minecraft:hanging_sign").
func NewSign(pos chunk.BlockPos, typeKey string) *Sign {
	return &Sign{pos: pos, typeKey: typeKey}
}

// Pos implements chunk.BlockEntity.
func (s *Sign) Pos() chunk.BlockPos { return s.pos }

// TypeKey implements chunk.BlockEntity.
func (s *Sign) TypeKey() string { return s.typeKey }

// SaveNBT implements chunk.BlockEntity with a fixed binary layout rather
// than real NBT: for the front and then the back side, its four lines and
// its color as strings followed by one glow-flag byte; then one waxed-flag
// byte and the editor uuid string. Every string is UTF-8 with a 4-byte
// big-endian length prefix. Block-entity payloads are treated as opaque blobs everywhere
// outside this type (§4.2, §6.5), so the encoding only needs to round-trip
// through SaveNBT/LoadNBT.
func (s *Sign) SaveNBT() []byte {
	var buf []byte
	buf = appendSide(buf, s.Front)
	buf = appendSide(buf, s.Back)
	waxed := byte(0)
	if s.Waxed {
		waxed = 1
	}
	buf = append(buf, waxed)
	buf = appendString(buf, s.EditorUUID)
	return buf
}

// LoadNBT implements chunk.BlockEntity, restoring state written by SaveNBT.
// Malformed input leaves the sign unchanged.
func (s *Sign) LoadNBT(data []byte) {
	rest := data
	front, rest, ok := readSide(rest)
	if !ok {
		return
	}
	back, rest, ok := readSide(rest)
	if !ok {
		return
	}
	if len(rest) < 1 {
		return
	}
	waxed := rest[0] != 0
	rest = rest[1:]
	editor, _, ok := readString(rest)
	if !ok {
		return
	}
	s.Front, s.Back, s.Waxed, s.EditorUUID = front, back, waxed, editor
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readString(data []byte) (string, []byte, bool) {
	if len(data) < 4 {
		return "", nil, false
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return "", nil, false
	}
	return string(data[:n]), data[n:], true
}

func appendSide(buf []byte, side SignSide) []byte {
	for _, l := range side.Lines {
		buf = appendString(buf, l)
	}
	buf = appendString(buf, side.Color)
	glow := byte(0)
	if side.HasGlowText {
		glow = 1
	}
	return append(buf, glow)
}

func readSide(data []byte) (SignSide, []byte, bool) {
	var side SignSide
	for i := range side.Lines {
		line, rest, ok := readString(data)
		if !ok {
			return SignSide{}, nil, false
		}
		side.Lines[i] = line
		data = rest
	}
	color, rest, ok := readString(data)
	if !ok {
		return SignSide{}, nil, false
	}
	side.Color = color
	data = rest
	if len(data) < 1 {
		return SignSide{}, nil, false
	}
	side.HasGlowText = data[0] != 0
	return side, data[1:], true
}

// SignBehavior is the Behavior for sign blocks: it only needs
// HasBlockEntity, every other hook keeps DefaultBehavior's no-op (placement
// and interaction — opening the sign-edit UI, waxing — are a connection/UI
// concern out of this engine's scope per SPEC_FULL's Non-goals).
type SignBehavior struct {
	DefaultBehavior
}

func (SignBehavior) HasBlockEntity() bool { return true }
