package chunk

// BlocksPerSection is the number of block cells in a 16x16x16 section.
const BlocksPerSection = 16 * 16 * 16

// BiomesPerSection is the number of biome cells in a section's 4x4x4 biome
// grid (each biome cell covers a 4x4x4 block region).
const BiomesPerSection = 4 * 4 * 4

// BiomeID identifies a registered biome by its small integer id.
type BiomeID uint8

// Section is a single 16x16x16 vertical slice of a chunk: a palette
// container of block states and a lower-resolution palette container of
// biomes. Two sections are equal in value iff every cell of both
// containers is equal (§3).
type Section struct {
	states *PaletteContainer[StateID]
	biomes *PaletteContainer[BiomeID]
}

// NewSection creates a section with every block cell set to air (state id
// 0) and every biome cell set to the given default biome.
func NewSection(defaultBiome BiomeID) *Section {
	return &Section{
		states: NewHomogeneous(16, StateID(0)),
		biomes: NewHomogeneous(4, defaultBiome),
	}
}

// SectionFromContainers builds a section directly from already-constructed
// palette containers, used when reconstructing a section from its
// persisted form (region.PersistentToChunk) rather than building it cell
// by cell.
func SectionFromContainers(states *PaletteContainer[StateID], biomes *PaletteContainer[BiomeID]) *Section {
	return &Section{states: states, biomes: biomes}
}

// States returns the section's block-state palette container.
func (s *Section) States() *PaletteContainer[StateID] { return s.states }

// Biomes returns the section's biome palette container.
func (s *Section) Biomes() *PaletteContainer[BiomeID] { return s.biomes }

// BlockAt returns the block state at local block coordinates (each 0..15).
func (s *Section) BlockAt(x, y, z int) StateID { return s.states.Get(x, y, z) }

// SetBlockAt sets the block state at local block coordinates.
func (s *Section) SetBlockAt(x, y, z int, id StateID) { s.states.Set(x, y, z, id) }

// BiomeAt returns the biome at local biome-cell coordinates (each 0..3).
func (s *Section) BiomeAt(x, y, z int) BiomeID { return s.biomes.Get(x, y, z) }

// SetBiomeAt sets the biome at local biome-cell coordinates.
func (s *Section) SetBiomeAt(x, y, z int, id BiomeID) { s.biomes.Set(x, y, z, id) }

// IsEmpty reports whether every block in the section is air, the condition
// under which a section can be omitted entirely from network/chunk
// serialization.
func (s *Section) IsEmpty() bool {
	return s.states.IsHomogeneous() && s.states.Get(0, 0, 0) == StateID(0)
}

// Equal reports whether two sections hold identical contents cell-for-cell.
func (s *Section) Equal(o *Section) bool {
	if s == o {
		return true
	}
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				if s.BlockAt(x, y, z) != o.BlockAt(x, y, z) {
					return false
				}
			}
		}
	}
	for y := 0; y < 4; y++ {
		for z := 0; z < 4; z++ {
			for x := 0; x < 4; x++ {
				if s.BiomeAt(x, y, z) != o.BiomeAt(x, y, z) {
					return false
				}
			}
		}
	}
	return true
}
