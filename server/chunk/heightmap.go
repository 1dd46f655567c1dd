package chunk

import "math/bits"

// HeightmapType identifies one of the four heightmaps tracked per chunk.
// WorldSurface tracks the highest non-air block, MotionBlocking the highest
// block a moving entity would collide with or swim through, the "no
// leaves" variant the same but ignoring leaf blocks, and OceanFloor the
// highest solid (non-liquid) block.
type HeightmapType uint8

const (
	WorldSurface HeightmapType = iota
	MotionBlocking
	MotionBlockingNoLeaves
	OceanFloor
)

// HeightmapTypes lists the four heightmaps a chunk carries once it has
// reached Carvers or later (§4.1).
var HeightmapTypes = [4]HeightmapType{WorldSurface, MotionBlocking, MotionBlockingNoLeaves, OceanFloor}

func (t HeightmapType) String() string {
	switch t {
	case WorldSurface:
		return "world_surface"
	case MotionBlocking:
		return "motion_blocking"
	case MotionBlockingNoLeaves:
		return "motion_blocking_no_leaves"
	case OceanFloor:
		return "ocean_floor"
	}
	return "unknown"
}

// BlockClassifier answers the handful of yes/no questions heightmap opacity
// rules need about a block state. A *Registry does not itself carry
// this information (it only knows property tuples), so the chunk package
// depends on a caller-supplied classifier rather than reaching into a block
// behaviour table directly.
type BlockClassifier interface {
	IsAir(StateID) bool
	HasCollision(StateID) bool
	IsLiquid(StateID) bool
	IsLeaves(StateID) bool
}

// IsOpaque reports whether a block state counts towards this heightmap
// type, matching the four heightmaps' distinct opacity rules.
func (t HeightmapType) IsOpaque(c BlockClassifier, id StateID) bool {
	switch t {
	case WorldSurface:
		return !c.IsAir(id)
	case MotionBlocking:
		return c.HasCollision(id) || c.IsLiquid(id)
	case MotionBlockingNoLeaves:
		return (c.HasCollision(id) || c.IsLiquid(id)) && !c.IsLeaves(id)
	case OceanFloor:
		return c.HasCollision(id)
	}
	return false
}

// Heightmap tracks, for each of a chunk's 256 (x, z) columns, the lowest Y
// at which a new block would be exposed to open air from above: one past
// the highest opaque block (for this heightmap's opacity rule) in that
// column. Heights are stored relative to minY.
type Heightmap struct {
	data          [256]uint16
	heightmapType HeightmapType
	minY, height  int32
}

// NewHeightmap creates a heightmap with every column initialized to minY
// (i.e. no opaque block found yet).
func NewHeightmap(t HeightmapType, minY, height int32) *Heightmap {
	return &Heightmap{heightmapType: t, minY: minY, height: height}
}

// Type returns the heightmap's type.
func (h *Heightmap) Type() HeightmapType { return h.heightmapType }

func columnIndex(x, z int) int { return x + z*16 }

// FirstAvailable returns the first free Y coordinate above the highest
// opaque block in the column, i.e. the Y a falling block would come to rest
// one above.
func (h *Heightmap) FirstAvailable(x, z int) int32 {
	return int32(h.data[columnIndex(x, z)]) + h.minY
}

// HighestTaken returns the Y of the highest opaque block in the column.
func (h *Heightmap) HighestTaken(x, z int) int32 {
	return h.FirstAvailable(x, z) - 1
}

// SetHeight sets the column's first-available Y directly.
func (h *Heightmap) SetHeight(x, z int, y int32) {
	h.data[columnIndex(x, z)] = uint16(y - h.minY)
}

// GetBlockFunc resolves the block state at an absolute Y within a fixed
// column, used by Update to scan downward when a block is removed from the
// top of a column.
type GetBlockFunc func(x int, y int32, z int) StateID

// Update incorporates a single block change into the heightmap. It reports
// whether the heightmap's stored height for this column changed. Callers
// that change a whole section at once should call this once per changed
// block rather than reprime from scratch; priming the full chunk (Prime)
// remains the only way to initialize this heightmap cold.
func (h *Heightmap) Update(classifier BlockClassifier, x int, y int32, z int, state StateID, get GetBlockFunc) bool {
	firstAvailable := h.FirstAvailable(x, z)

	if y <= firstAvailable-2 {
		return false
	}

	if h.heightmapType.IsOpaque(classifier, state) {
		if y >= firstAvailable {
			h.SetHeight(x, z, y+1)
			return true
		}
		return false
	}

	if firstAvailable-1 == y {
		for scanY := y - 1; scanY >= h.minY; scanY-- {
			if h.heightmapType.IsOpaque(classifier, get(x, scanY, z)) {
				h.SetHeight(x, z, scanY+1)
				return true
			}
		}
		h.SetHeight(x, z, h.minY)
		return true
	}

	return false
}

// bitsPerValue returns the number of bits needed to encode any height in
// [0, height], i.e. ceil(log2(height+1)).
func bitsPerValue(height int32) uint {
	maxValue := uint32(height) + 1
	if maxValue <= 1 {
		return 1
	}
	return uint(32 - bits.LeadingZeros32(maxValue-1))
}

// RawData packs the 256 column heights into the minimum number of u64 words
// needed for the world's height range, for on-disk/wire serialization.
func (h *Heightmap) RawData() []uint64 {
	bpv := bitsPerValue(h.height)
	valuesPerWord := 64 / bpv
	numWords := (256 + int(valuesPerWord) - 1) / int(valuesPerWord)

	out := make([]uint64, numWords)
	mask := uint64(1)<<bpv - 1
	for i, height := range h.data {
		wordIndex := i / int(valuesPerWord)
		bitOffset := uint(i%int(valuesPerWord)) * bpv
		out[wordIndex] |= (uint64(height) & mask) << bitOffset
	}
	return out
}

// SetRawData restores the heightmap from packed words produced by RawData.
// A length mismatch leaves the heightmap unchanged.
func (h *Heightmap) SetRawData(data []uint64) {
	bpv := bitsPerValue(h.height)
	valuesPerWord := 64 / bpv
	expectedWords := (256 + int(valuesPerWord) - 1) / int(valuesPerWord)
	if len(data) != expectedWords {
		return
	}

	mask := uint64(1)<<bpv - 1
	for i := 0; i < 256; i++ {
		wordIndex := i / int(valuesPerWord)
		bitOffset := uint(i%int(valuesPerWord)) * bpv
		h.data[i] = uint16((data[wordIndex] >> bitOffset) & mask)
	}
}

// Heightmaps is the set of four final heightmaps a generated chunk carries.
type Heightmaps struct {
	WorldSurface           *Heightmap
	MotionBlocking         *Heightmap
	MotionBlockingNoLeaves *Heightmap
	OceanFloor             *Heightmap
}

// NewHeightmaps creates all four heightmaps, each initialized to minY.
func NewHeightmaps(minY, height int32) *Heightmaps {
	return &Heightmaps{
		WorldSurface:           NewHeightmap(WorldSurface, minY, height),
		MotionBlocking:         NewHeightmap(MotionBlocking, minY, height),
		MotionBlockingNoLeaves: NewHeightmap(MotionBlockingNoLeaves, minY, height),
		OceanFloor:             NewHeightmap(OceanFloor, minY, height),
	}
}

// Get returns the heightmap of the given type.
func (h *Heightmaps) Get(t HeightmapType) *Heightmap {
	switch t {
	case WorldSurface:
		return h.WorldSurface
	case MotionBlocking:
		return h.MotionBlocking
	case MotionBlockingNoLeaves:
		return h.MotionBlockingNoLeaves
	case OceanFloor:
		return h.OceanFloor
	}
	panic("chunk: unknown heightmap type")
}

// Update incorporates a block change into all four heightmaps.
func (h *Heightmaps) Update(classifier BlockClassifier, x int, y int32, z int, state StateID, get GetBlockFunc) {
	h.WorldSurface.Update(classifier, x, y, z, state, get)
	h.MotionBlocking.Update(classifier, x, y, z, state, get)
	h.MotionBlockingNoLeaves.Update(classifier, x, y, z, state, get)
	h.OceanFloor.Update(classifier, x, y, z, state, get)
}

// Prime lazily initializes every column of every heightmap in the set by
// scanning the chunk from top to bottom once, stopping early per-column as
// soon as each heightmap type has found its first opaque block. This is how
// a freshly generated chunk's heightmaps are built, and how a chunk loaded
// from disk without stored heightmap data recovers them.
func Prime(classifier BlockClassifier, heightmaps [4]*Heightmap, minY, height int32, get GetBlockFunc) {
	maxY := minY + height
	var pending [4]HeightmapType
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			n := copy(pending[:], HeightmapTypes[:])
			for y := maxY - 1; y >= minY && n > 0; y-- {
				state := get(x, y, z)
				if classifier.IsAir(state) {
					continue
				}
				kept := 0
				for i := 0; i < n; i++ {
					t := pending[i]
					hm := heightmapOf(heightmaps, t)
					if t.IsOpaque(classifier, state) {
						hm.SetHeight(x, z, y+1)
					} else {
						pending[kept] = t
						kept++
					}
				}
				n = kept
			}
		}
	}
}

func heightmapOf(heightmaps [4]*Heightmap, t HeightmapType) *Heightmap {
	for _, hm := range heightmaps {
		if hm.Type() == t {
			return hm
		}
	}
	panic("chunk: heightmap type not present in set passed to Prime")
}
