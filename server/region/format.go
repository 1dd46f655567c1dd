// Package region implements the on-disk region file store: fixed-size
// location tables backed by 4 KiB sectors, one file per 32x32 chunk area.
package region

import (
	"sort"
	"strconv"

	"github.com/blockforge/core/server/chunk"
)

// RegionMagic identifies a region file: "STLR".
var RegionMagic = [4]byte{'S', 'T', 'L', 'R'}

// FormatVersion is the current on-disk format version. Bump on breaking
// changes. Version 3 prefixes every chunk payload with an 8-byte xxhash
// checksum of the compressed bytes (§ corruption diagnostics).
const FormatVersion uint16 = 3

// RegionSize is the number of chunks per region side (32x32 = 1024 chunks).
const RegionSize = 32

// ChunksPerRegion is the total chunk count in a region.
const ChunksPerRegion = RegionSize * RegionSize

// SectorSize is the on-disk allocation granularity in bytes.
const SectorSize = 4096

// FileHeaderSize is the magic+version+padding prefix.
const FileHeaderSize = 8

// ChunkTableSize is the size of the 1024-entry location table.
const ChunkTableSize = ChunksPerRegion * 8

// TotalHeaderSize is the file header plus the location table.
const TotalHeaderSize = FileHeaderSize + ChunkTableSize

// FirstDataSector is the first sector available for chunk payloads; the
// header occupies ceil(TotalHeaderSize/SectorSize) = 3 sectors.
const FirstDataSector uint32 = 3

// MaxChunkSize bounds a single compressed chunk payload (16 MiB).
const MaxChunkSize = 16 * 1024 * 1024

// ChunkEntry is one 8-byte slot in a region's location table:
// offset (u32) + size (u24) + status (u8).
type ChunkEntry struct {
	SectorOffset uint32
	SizeBytes    uint32
	Status       chunk.Status
}

// Exists reports whether the entry refers to chunk data on disk.
func (e ChunkEntry) Exists() bool { return e.SectorOffset != 0 }

// SectorCount is the number of 4 KiB sectors this entry occupies.
func (e ChunkEntry) SectorCount() uint32 {
	if e.SizeBytes == 0 {
		return 0
	}
	return (e.SizeBytes + SectorSize - 1) / SectorSize
}

// ToBytes serializes the entry to its 8-byte on-disk form.
func (e ChunkEntry) ToBytes() [8]byte {
	var out [8]byte
	out[0] = byte(e.SectorOffset)
	out[1] = byte(e.SectorOffset >> 8)
	out[2] = byte(e.SectorOffset >> 16)
	out[3] = byte(e.SectorOffset >> 24)
	out[4] = byte(e.SizeBytes)
	out[5] = byte(e.SizeBytes >> 8)
	out[6] = byte(e.SizeBytes >> 16)
	out[7] = byte(e.Status)
	return out
}

// EntryFromBytes deserializes an 8-byte on-disk entry.
func EntryFromBytes(b [8]byte) ChunkEntry {
	return ChunkEntry{
		SectorOffset: uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24,
		SizeBytes:    uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16,
		Status:       chunk.Status(b[7]),
	}
}

// Header is a region's in-memory chunk location table.
type Header struct {
	Entries [ChunksPerRegion]ChunkEntry
}

// NewHeader returns an empty (all-absent) header.
func NewHeader() *Header {
	return &Header{}
}

// ChunkIndex maps local chunk coordinates (0..31) to a table slot.
func ChunkIndex(localX, localZ int) int {
	return localZ*RegionSize + localX
}

// IndexToLocal is the inverse of ChunkIndex.
func IndexToLocal(index int) (localX, localZ int) {
	return index % RegionSize, index / RegionSize
}

// ToBytes serializes the whole table.
func (h *Header) ToBytes() []byte {
	out := make([]byte, 0, ChunkTableSize)
	for _, e := range h.Entries {
		b := e.ToBytes()
		out = append(out, b[:]...)
	}
	return out
}

// HeaderFromBytes deserializes a table; panics if b is not exactly ChunkTableSize bytes.
func HeaderFromBytes(b []byte) *Header {
	if len(b) != ChunkTableSize {
		panic("region: chunk table must be exactly ChunkTableSize bytes")
	}
	h := &Header{}
	for i := range h.Entries {
		var entry [8]byte
		copy(entry[:], b[i*8:i*8+8])
		h.Entries[i] = EntryFromBytes(entry)
	}
	return h
}

// FindFreeSectors returns a sector offset with room for sectorsNeeded
// contiguous sectors, preferring a gap between already-used ranges over
// appending past the current end of the file.
func (h *Header) FindFreeSectors(sectorsNeeded, fileSectors uint32) uint32 {
	if sectorsNeeded == 0 {
		return FirstDataSector
	}

	type span struct{ start, end uint32 }
	used := make([]span, 0, ChunksPerRegion)
	for _, e := range h.Entries {
		if e.Exists() {
			used = append(used, span{e.SectorOffset, e.SectorOffset + e.SectorCount()})
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i].start < used[j].start })

	cur := FirstDataSector
	for _, s := range used {
		if s.start >= cur+sectorsNeeded {
			return cur
		}
		if s.end > cur {
			cur = s.end
		}
	}
	if cur < fileSectors {
		return fileSectors
	}
	return cur
}

// Pos identifies a region in region coordinates (chunk coordinates / 32).
type Pos struct {
	X, Z int32
}

// PosFromChunk converts a chunk position to the region that contains it.
func PosFromChunk(chunkX, chunkZ int32) Pos {
	return Pos{X: floorDiv(chunkX, RegionSize), Z: floorDiv(chunkZ, RegionSize)}
}

// LocalChunkPos returns the 0..31 local coordinates of a chunk within its region.
func LocalChunkPos(chunkX, chunkZ int32) (int, int) {
	return int(floorMod(chunkX, RegionSize)), int(floorMod(chunkZ, RegionSize))
}

// Filename is the on-disk name for this region, e.g. "r.0.-1.srg".
func (p Pos) Filename() string {
	return "r." + strconv.Itoa(int(p.X)) + "." + strconv.Itoa(int(p.Z)) + ".srg"
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
