package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blockforge/core/server/chunk"
)

// PersistentProperty is a single resolved (name, value) pair of a persisted
// block state, stored as strings so the on-disk record survives a registry
// that has renumbered or reordered its state ids.
type PersistentProperty struct {
	Name, Value string
}

// PersistentBlockState is a block state as it appears in a chunk's own
// block-state palette: a stable name plus its sorted property list.
type PersistentBlockState struct {
	Name       string
	Properties []PersistentProperty
}

// PersistentBiomeData is a section's biome container in persisted form,
// mirroring PersistentSection's Homogeneous/Heterogeneous split but over the
// chunk's biome palette instead of its block-state palette.
type PersistentBiomeData struct {
	Homogeneous  bool
	Biome        uint16 // valid when Homogeneous
	Palette      []uint16
	BitsPerEntry uint8
	BiomeData    []uint64
}

// PersistentSection is one section's block-state container in persisted
// form. Homogeneous sections store a single chunk-palette index; otherwise
// Palette holds section-local indices into the chunk's block-state palette
// and BlockData packs indices into that section-local palette.
type PersistentSection struct {
	Homogeneous  bool
	BlockState   uint16 // valid when Homogeneous
	Palette      []uint16
	BitsPerEntry uint8
	BlockData    []uint64
	Biomes       PersistentBiomeData
}

// PersistentBlockEntity is a block entity as stored with its owning chunk:
// chunk-relative x/z, absolute y, a type key, and an opaque NBT-style blob.
type PersistentBlockEntity struct {
	X, Z uint8
	Y    int16
	Type string
	Data []byte
}

// PersistentEntity is a resident entity saved with its chunk.
type PersistentEntity struct {
	Type     string
	UUID     [16]byte
	Pos      [3]float64
	Motion   [3]float64
	Rotation [2]float32
	OnGround bool
	Data     []byte
}

// PersistentTick is one scheduled tick (block or fluid) saved with its
// chunk, chunk-relative in x/z so ticks survive region boundaries intact.
type PersistentTick struct {
	X, Z         uint8
	Y            int32
	Delay        int32
	Priority     int8
	SubTickOrder int64
	Type         string
}

// PersistentChunk is the self-contained on-disk record for one chunk: its
// own block-state and biome palettes (so sections never need a region-wide
// table rebuild), its sections, block entities, entities, and scheduled
// ticks.
type PersistentChunk struct {
	LastModified  uint32
	BlockStates   []PersistentBlockState
	Biomes        []string
	Sections      []PersistentSection
	BlockEntities []PersistentBlockEntity
	Entities      []PersistentEntity
	BlockTicks    []PersistentTick
	FluidTicks    []PersistentTick
}

// BiomeTable resolves between a chunk's runtime BiomeID values and their
// stable string keys, the biome-side counterpart to chunk.Registry for
// block states.
type BiomeTable interface {
	KeyForBiome(id chunk.BiomeID) (string, bool)
	BiomeForKey(key string) (chunk.BiomeID, bool)
}

// SaveableEntity is the richer, optional capability a resident entity must
// implement to survive a save/load round trip. An entity that only
// implements chunk.Entity is tracked in memory but silently excluded from
// the persisted record, matching the original's validate-and-skip handling
// of entities it cannot fully describe.
type SaveableEntity interface {
	chunk.Entity
	TypeKey() string
	UUID() [16]byte
	Velocity() (x, y, z float64)
	Rotation() (yaw, pitch float32)
	OnGround() bool
	SaveNBT() []byte
}

// chunkBuilder interns block states and biomes into a chunk-local palette
// while converting a runtime chunk to its persistent form.
type chunkBuilder struct {
	states *chunk.Registry
	biomes BiomeTable

	blockStates []PersistentBlockState
	biomeKeys   []string
}

func (b *chunkBuilder) ensureBlockState(id chunk.StateID) (uint16, error) {
	bt, err := b.states.BlockFor(id)
	if err != nil {
		return 0, err
	}
	props, err := b.states.Decode(id)
	if err != nil {
		return 0, err
	}
	persistent := PersistentBlockState{Name: bt.Key, Properties: make([]PersistentProperty, len(props))}
	for i, pv := range props {
		persistent.Properties[i] = PersistentProperty{Name: pv.Name, Value: pv.Value}
	}
	for i, existing := range b.blockStates {
		if blockStateEqual(existing, persistent) {
			return uint16(i), nil
		}
	}
	idx := len(b.blockStates)
	b.blockStates = append(b.blockStates, persistent)
	return uint16(idx), nil
}

func (b *chunkBuilder) ensureBiome(id chunk.BiomeID) (uint16, error) {
	key, ok := b.biomes.KeyForBiome(id)
	if !ok {
		return 0, fmt.Errorf("region: biome id %d is not registered", id)
	}
	for i, existing := range b.biomeKeys {
		if existing == key {
			return uint16(i), nil
		}
	}
	idx := len(b.biomeKeys)
	b.biomeKeys = append(b.biomeKeys, key)
	return uint16(idx), nil
}

func blockStateEqual(a, b PersistentBlockState) bool {
	if a.Name != b.Name || len(a.Properties) != len(b.Properties) {
		return false
	}
	for i := range a.Properties {
		if a.Properties[i] != b.Properties[i] {
			return false
		}
	}
	return true
}

// ChunkToPersistent converts a runtime chunk (which must be at Full status;
// callers of lesser statuses should not be persisting section biome/state
// data through the full pipeline) into its persistent record. The chunk is
// not modified; callers clear the dirty flag separately once the record has
// actually been written.
func ChunkToPersistent(states *chunk.Registry, biomes BiomeTable, c *chunk.Chunk) (*PersistentChunk, error) {
	builder := &chunkBuilder{states: states, biomes: biomes}

	sections := make([]PersistentSection, c.SectionCount())
	for i := 0; i < c.SectionCount(); i++ {
		ps, err := sectionToPersistent(c.Section(i), builder)
		if err != nil {
			return nil, err
		}
		sections[i] = ps
	}

	pos := c.Pos()
	blockEntities := make([]PersistentBlockEntity, 0, len(c.BlockEntities()))
	for _, be := range c.BlockEntities() {
		p := be.Pos()
		blockEntities = append(blockEntities, PersistentBlockEntity{
			X:    uint8(p.X - pos.X*16),
			Y:    int16(p.Y),
			Z:    uint8(p.Z - pos.Z*16),
			Type: be.TypeKey(),
			Data: be.SaveNBT(),
		})
	}

	entities := make([]PersistentEntity, 0, len(c.Entities()))
	for _, e := range c.Entities() {
		se, ok := e.(SaveableEntity)
		if !ok {
			continue
		}
		x, y, z := se.Position()
		vx, vy, vz := se.Velocity()
		yaw, pitch := se.Rotation()
		entities = append(entities, PersistentEntity{
			Type:     se.TypeKey(),
			UUID:     se.UUID(),
			Pos:      [3]float64{x, y, z},
			Motion:   [3]float64{vx, vy, vz},
			Rotation: [2]float32{yaw, pitch},
			OnGround: se.OnGround(),
			Data:     se.SaveNBT(),
		})
	}

	blockTicks := ticksToPersistent(c.BlockTicks().All(), pos)
	fluidTicks := fluidTicksToPersistent(c.FluidTicks().All(), pos)

	return &PersistentChunk{
		LastModified:  uint32(time.Now().Unix()),
		BlockStates:   builder.blockStates,
		Biomes:        builder.biomeKeys,
		Sections:      sections,
		BlockEntities: blockEntities,
		Entities:      entities,
		BlockTicks:    blockTicks,
		FluidTicks:    fluidTicks,
	}, nil
}

func ticksToPersistent(ticks []chunk.ScheduledTick[*chunk.BlockType], chunkPos chunk.ChunkPos) []PersistentTick {
	out := make([]PersistentTick, len(ticks))
	for i, t := range ticks {
		out[i] = PersistentTick{
			X:            uint8(t.Pos.X - chunkPos.X*16),
			Y:            t.Pos.Y,
			Z:            uint8(t.Pos.Z - chunkPos.Z*16),
			Delay:        t.Delay,
			Priority:     int8(t.Priority),
			SubTickOrder: t.SubTickOrder,
			Type:         t.Target.TickKey(),
		}
	}
	return out
}

func fluidTicksToPersistent(ticks []chunk.ScheduledTick[chunk.FluidType], chunkPos chunk.ChunkPos) []PersistentTick {
	out := make([]PersistentTick, len(ticks))
	for i, t := range ticks {
		out[i] = PersistentTick{
			X:            uint8(t.Pos.X - chunkPos.X*16),
			Y:            t.Pos.Y,
			Z:            uint8(t.Pos.Z - chunkPos.Z*16),
			Delay:        t.Delay,
			Priority:     int8(t.Priority),
			SubTickOrder: t.SubTickOrder,
			Type:         t.Target.TickKey(),
		}
	}
	return out
}

func sectionToPersistent(s *chunk.Section, builder *chunkBuilder) (PersistentSection, error) {
	biomesPersistent, err := biomesToPersistent(s.Biomes(), builder)
	if err != nil {
		return PersistentSection{}, err
	}

	if s.States().IsHomogeneous() {
		idx, err := builder.ensureBlockState(s.States().Get(0, 0, 0))
		if err != nil {
			return PersistentSection{}, err
		}
		return PersistentSection{Homogeneous: true, BlockState: idx, Biomes: biomesPersistent}, nil
	}

	values := s.States().Values()
	localPalette := make([]uint16, len(values))
	for i, v := range values {
		idx, err := builder.ensureBlockState(v)
		if err != nil {
			return PersistentSection{}, err
		}
		localPalette[i] = idx
	}

	cube := s.States().ToCube()
	localIndices := make([]uint16, len(cube))
	for i, v := range cube {
		localIndices[i] = sectionLocalIndex(values, v)
	}

	bits := chunk.BitsForPaletteLen(len(localPalette), true)
	blockData := chunk.PackIndices(localIndices, bits)

	return PersistentSection{
		Palette:      localPalette,
		BitsPerEntry: uint8(bits),
		BlockData:    blockData,
		Biomes:       biomesPersistent,
	}, nil
}

func biomesToPersistent(b *chunk.PaletteContainer[chunk.BiomeID], builder *chunkBuilder) (PersistentBiomeData, error) {
	if b.IsHomogeneous() {
		idx, err := builder.ensureBiome(b.Get(0, 0, 0))
		if err != nil {
			return PersistentBiomeData{}, err
		}
		return PersistentBiomeData{Homogeneous: true, Biome: idx}, nil
	}

	values := b.Values()
	localPalette := make([]uint16, len(values))
	for i, v := range values {
		idx, err := builder.ensureBiome(v)
		if err != nil {
			return PersistentBiomeData{}, err
		}
		localPalette[i] = idx
	}

	cube := b.ToCube()
	localIndices := make([]uint16, len(cube))
	for i, v := range cube {
		localIndices[i] = biomeLocalIndex(values, v)
	}

	bits := chunk.BitsForPaletteLen(len(localPalette), false)
	biomeData := chunk.PackIndices(localIndices, bits)

	return PersistentBiomeData{
		Palette:      localPalette,
		BitsPerEntry: uint8(bits),
		BiomeData:    biomeData,
	}, nil
}

func sectionLocalIndex(palette []chunk.StateID, v chunk.StateID) uint16 {
	for i, p := range palette {
		if p == v {
			return uint16(i)
		}
	}
	return 0
}

func biomeLocalIndex(palette []chunk.BiomeID, v chunk.BiomeID) uint16 {
	for i, p := range palette {
		if p == v {
			return uint16(i)
		}
	}
	return 0
}

// PersistentToChunk reconstructs a runtime chunk from its persistent
// record. The returned chunk is not dirty. Status is supplied by the
// caller (it lives in the region's location table entry, not the payload).
func PersistentToChunk(states *chunk.Registry, biomes BiomeTable, p *PersistentChunk, pos chunk.ChunkPos, status chunk.Status, minY, height int32, defaultBiome chunk.BiomeID) (*chunk.Chunk, error) {
	c := chunk.New(pos, minY, height, defaultBiome)

	for i, ps := range p.Sections {
		if i >= c.SectionCount() {
			break
		}
		section, err := persistentToSection(states, biomes, ps, p)
		if err != nil {
			return nil, err
		}
		*c.Section(i) = *section
	}

	// Block entities are reconstructed by the world layer, not here: turning
	// a (type key, NBT blob) pair back into a concrete chunk.BlockEntity
	// requires the block package's factory table, and chunk must not import
	// block. PersistentChunk.BlockEntities is carried through unchanged for
	// that layer to consume.

	c.SetBlockTicks(chunk.TickListFromTicks(persistentToBlockTicks(states, p.BlockTicks, pos)))
	c.SetFluidTicks(chunk.TickListFromTicks(persistentToFluidTicks(p.FluidTicks, pos)))

	c.Advance(status)
	c.ClearDirty()
	return c, nil
}

func persistentToBlockTicks(states *chunk.Registry, ticks []PersistentTick, chunkPos chunk.ChunkPos) []chunk.ScheduledTick[*chunk.BlockType] {
	out := make([]chunk.ScheduledTick[*chunk.BlockType], 0, len(ticks))
	for _, t := range ticks {
		bt, err := states.Lookup(t.Type)
		if err != nil {
			continue
		}
		out = append(out, chunk.ScheduledTick[*chunk.BlockType]{
			Target:       bt,
			Pos:          chunk.NewBlockPos(chunkPos.X*16+int32(t.X), t.Y, chunkPos.Z*16+int32(t.Z)),
			Delay:        t.Delay,
			Priority:     chunk.TickPriorityFromInt8(t.Priority),
			SubTickOrder: t.SubTickOrder,
		})
	}
	return out
}

func persistentToFluidTicks(ticks []PersistentTick, chunkPos chunk.ChunkPos) []chunk.ScheduledTick[chunk.FluidType] {
	out := make([]chunk.ScheduledTick[chunk.FluidType], 0, len(ticks))
	for _, t := range ticks {
		out = append(out, chunk.ScheduledTick[chunk.FluidType]{
			Target:       chunk.FluidType(t.Type),
			Pos:          chunk.NewBlockPos(chunkPos.X*16+int32(t.X), t.Y, chunkPos.Z*16+int32(t.Z)),
			Delay:        t.Delay,
			Priority:     chunk.TickPriorityFromInt8(t.Priority),
			SubTickOrder: t.SubTickOrder,
		})
	}
	return out
}

func persistentToSection(states *chunk.Registry, biomes BiomeTable, ps PersistentSection, chunkRec *PersistentChunk) (*chunk.Section, error) {
	biomeContainer, err := persistentToBiomes(biomes, ps.Biomes, chunkRec)
	if err != nil {
		return nil, err
	}

	if ps.Homogeneous {
		id, err := resolveBlockState(states, chunkRec, ps.BlockState)
		if err != nil {
			return nil, err
		}
		return sectionFromParts(chunk.NewHomogeneous(16, id), biomeContainer), nil
	}

	indices := chunk.UnpackIndices(ps.BlockData, int(ps.BitsPerEntry), chunk.BlocksPerSection)
	runtimePalette := make([]chunk.StateID, len(ps.Palette))
	for i, idx := range ps.Palette {
		id, err := resolveBlockState(states, chunkRec, idx)
		if err != nil {
			return nil, err
		}
		runtimePalette[i] = id
	}
	cube := make([]chunk.StateID, len(indices))
	for i, idx := range indices {
		if int(idx) < len(runtimePalette) {
			cube[i] = runtimePalette[idx]
		}
	}
	return sectionFromParts(chunk.FromCube(16, cube), biomeContainer), nil
}

func persistentToBiomes(biomes BiomeTable, pb PersistentBiomeData, chunkRec *PersistentChunk) (*chunk.PaletteContainer[chunk.BiomeID], error) {
	if pb.Homogeneous {
		id, err := resolveBiome(biomes, chunkRec, pb.Biome)
		if err != nil {
			return nil, err
		}
		return chunk.NewHomogeneous(4, id), nil
	}

	indices := chunk.UnpackIndices(pb.BiomeData, int(pb.BitsPerEntry), chunk.BiomesPerSection)
	runtimePalette := make([]chunk.BiomeID, len(pb.Palette))
	for i, idx := range pb.Palette {
		id, err := resolveBiome(biomes, chunkRec, idx)
		if err != nil {
			return nil, err
		}
		runtimePalette[i] = id
	}
	cube := make([]chunk.BiomeID, len(indices))
	for i, idx := range indices {
		if int(idx) < len(runtimePalette) {
			cube[i] = runtimePalette[idx]
		}
	}
	return chunk.FromCube(4, cube), nil
}

func resolveBlockState(states *chunk.Registry, chunkRec *PersistentChunk, index uint16) (chunk.StateID, error) {
	if int(index) >= len(chunkRec.BlockStates) {
		return 0, nil
	}
	pbs := chunkRec.BlockStates[index]
	values := make([]chunk.PropValue, len(pbs.Properties))
	for i, p := range pbs.Properties {
		values[i] = chunk.PropValue{Name: p.Name, Value: p.Value}
	}
	id, err := states.Resolve(pbs.Name, values)
	if err != nil {
		return 0, nil // unknown block on load: fall back to air (id 0)
	}
	return id, nil
}

func resolveBiome(biomes BiomeTable, chunkRec *PersistentChunk, index uint16) (chunk.BiomeID, error) {
	if int(index) >= len(chunkRec.Biomes) {
		return 0, nil
	}
	id, ok := biomes.BiomeForKey(chunkRec.Biomes[index])
	if !ok {
		return 0, nil
	}
	return id, nil
}

func sectionFromParts(states *chunk.PaletteContainer[chunk.StateID], biomes *chunk.PaletteContainer[chunk.BiomeID]) *chunk.Section {
	return chunk.SectionFromContainers(states, biomes)
}

// Serialize encodes a PersistentChunk to its stable binary schema (before
// compression).
func Serialize(p *PersistentChunk) []byte {
	var buf bytes.Buffer
	writeU32(&buf, p.LastModified)

	writeVarUint(&buf, uint64(len(p.BlockStates)))
	for _, bs := range p.BlockStates {
		writeString(&buf, bs.Name)
		writeVarUint(&buf, uint64(len(bs.Properties)))
		for _, pr := range bs.Properties {
			writeString(&buf, pr.Name)
			writeString(&buf, pr.Value)
		}
	}

	writeVarUint(&buf, uint64(len(p.Biomes)))
	for _, b := range p.Biomes {
		writeString(&buf, b)
	}

	writeVarUint(&buf, uint64(len(p.Sections)))
	for _, s := range p.Sections {
		writeSection(&buf, s)
	}

	writeVarUint(&buf, uint64(len(p.BlockEntities)))
	for _, be := range p.BlockEntities {
		buf.WriteByte(be.X)
		buf.WriteByte(be.Z)
		writeI16(&buf, be.Y)
		writeString(&buf, be.Type)
		writeBytes(&buf, be.Data)
	}

	writeVarUint(&buf, uint64(len(p.Entities)))
	for _, e := range p.Entities {
		writeString(&buf, e.Type)
		buf.Write(e.UUID[:])
		writeF64(&buf, e.Pos[0])
		writeF64(&buf, e.Pos[1])
		writeF64(&buf, e.Pos[2])
		writeF64(&buf, e.Motion[0])
		writeF64(&buf, e.Motion[1])
		writeF64(&buf, e.Motion[2])
		writeF32(&buf, e.Rotation[0])
		writeF32(&buf, e.Rotation[1])
		writeBool(&buf, e.OnGround)
		writeBytes(&buf, e.Data)
	}

	writeVarUint(&buf, uint64(len(p.BlockTicks)))
	for _, t := range p.BlockTicks {
		writeTick(&buf, t)
	}
	writeVarUint(&buf, uint64(len(p.FluidTicks)))
	for _, t := range p.FluidTicks {
		writeTick(&buf, t)
	}

	return buf.Bytes()
}

func writeSection(buf *bytes.Buffer, s PersistentSection) {
	writeBool(buf, s.Homogeneous)
	if s.Homogeneous {
		writeU16(buf, s.BlockState)
	} else {
		writeVarUint(buf, uint64(len(s.Palette)))
		for _, idx := range s.Palette {
			writeU16(buf, idx)
		}
		buf.WriteByte(s.BitsPerEntry)
		writeVarUint(buf, uint64(len(s.BlockData)))
		for _, w := range s.BlockData {
			writeU64(buf, w)
		}
	}
	writeBiomes(buf, s.Biomes)
}

func writeBiomes(buf *bytes.Buffer, b PersistentBiomeData) {
	writeBool(buf, b.Homogeneous)
	if b.Homogeneous {
		writeU16(buf, b.Biome)
		return
	}
	writeVarUint(buf, uint64(len(b.Palette)))
	for _, idx := range b.Palette {
		writeU16(buf, idx)
	}
	buf.WriteByte(b.BitsPerEntry)
	writeVarUint(buf, uint64(len(b.BiomeData)))
	for _, w := range b.BiomeData {
		writeU64(buf, w)
	}
}

func writeTick(buf *bytes.Buffer, t PersistentTick) {
	buf.WriteByte(t.X)
	buf.WriteByte(t.Z)
	writeI32(buf, t.Y)
	writeI32(buf, t.Delay)
	buf.WriteByte(byte(t.Priority))
	writeI64(buf, t.SubTickOrder)
	writeString(buf, t.Type)
}

// Deserialize decodes a PersistentChunk from bytes produced by Serialize.
func Deserialize(data []byte) (*PersistentChunk, error) {
	r := bytes.NewReader(data)
	p := &PersistentChunk{}

	var err error
	if p.LastModified, err = readU32(r); err != nil {
		return nil, err
	}

	n, err := readVarUint(r)
	if err != nil {
		return nil, err
	}
	p.BlockStates = make([]PersistentBlockState, n)
	for i := range p.BlockStates {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		pn, err := readVarUint(r)
		if err != nil {
			return nil, err
		}
		props := make([]PersistentProperty, pn)
		for j := range props {
			pname, err := readString(r)
			if err != nil {
				return nil, err
			}
			pval, err := readString(r)
			if err != nil {
				return nil, err
			}
			props[j] = PersistentProperty{Name: pname, Value: pval}
		}
		p.BlockStates[i] = PersistentBlockState{Name: name, Properties: props}
	}

	n, err = readVarUint(r)
	if err != nil {
		return nil, err
	}
	p.Biomes = make([]string, n)
	for i := range p.Biomes {
		if p.Biomes[i], err = readString(r); err != nil {
			return nil, err
		}
	}

	n, err = readVarUint(r)
	if err != nil {
		return nil, err
	}
	p.Sections = make([]PersistentSection, n)
	for i := range p.Sections {
		if p.Sections[i], err = readSection(r); err != nil {
			return nil, err
		}
	}

	n, err = readVarUint(r)
	if err != nil {
		return nil, err
	}
	p.BlockEntities = make([]PersistentBlockEntity, n)
	for i := range p.BlockEntities {
		x, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		z, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		y, err := readI16(r)
		if err != nil {
			return nil, err
		}
		typ, err := readString(r)
		if err != nil {
			return nil, err
		}
		data, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		p.BlockEntities[i] = PersistentBlockEntity{X: x, Z: z, Y: y, Type: typ, Data: data}
	}

	n, err = readVarUint(r)
	if err != nil {
		return nil, err
	}
	p.Entities = make([]PersistentEntity, n)
	for i := range p.Entities {
		typ, err := readString(r)
		if err != nil {
			return nil, err
		}
		var uuid [16]byte
		if _, err := r.Read(uuid[:]); err != nil {
			return nil, err
		}
		var pos, motion [3]float64
		for k := range pos {
			if pos[k], err = readF64(r); err != nil {
				return nil, err
			}
		}
		for k := range motion {
			if motion[k], err = readF64(r); err != nil {
				return nil, err
			}
		}
		var rot [2]float32
		for k := range rot {
			if rot[k], err = readF32(r); err != nil {
				return nil, err
			}
		}
		onGround, err := readBool(r)
		if err != nil {
			return nil, err
		}
		data, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		p.Entities[i] = PersistentEntity{Type: typ, UUID: uuid, Pos: pos, Motion: motion, Rotation: rot, OnGround: onGround, Data: data}
	}

	if p.BlockTicks, err = readTicks(r); err != nil {
		return nil, err
	}
	if p.FluidTicks, err = readTicks(r); err != nil {
		return nil, err
	}

	return p, nil
}

func readSection(r *bytes.Reader) (PersistentSection, error) {
	var s PersistentSection
	homogeneous, err := readBool(r)
	if err != nil {
		return s, err
	}
	s.Homogeneous = homogeneous
	if homogeneous {
		if s.BlockState, err = readU16(r); err != nil {
			return s, err
		}
	} else {
		n, err := readVarUint(r)
		if err != nil {
			return s, err
		}
		s.Palette = make([]uint16, n)
		for i := range s.Palette {
			if s.Palette[i], err = readU16(r); err != nil {
				return s, err
			}
		}
		bits, err := r.ReadByte()
		if err != nil {
			return s, err
		}
		s.BitsPerEntry = bits
		wn, err := readVarUint(r)
		if err != nil {
			return s, err
		}
		s.BlockData = make([]uint64, wn)
		for i := range s.BlockData {
			if s.BlockData[i], err = readU64(r); err != nil {
				return s, err
			}
		}
	}
	s.Biomes, err = readBiomes(r)
	return s, err
}

func readBiomes(r *bytes.Reader) (PersistentBiomeData, error) {
	var b PersistentBiomeData
	homogeneous, err := readBool(r)
	if err != nil {
		return b, err
	}
	b.Homogeneous = homogeneous
	if homogeneous {
		b.Biome, err = readU16(r)
		return b, err
	}
	n, err := readVarUint(r)
	if err != nil {
		return b, err
	}
	b.Palette = make([]uint16, n)
	for i := range b.Palette {
		if b.Palette[i], err = readU16(r); err != nil {
			return b, err
		}
	}
	bits, err := r.ReadByte()
	if err != nil {
		return b, err
	}
	b.BitsPerEntry = bits
	wn, err := readVarUint(r)
	if err != nil {
		return b, err
	}
	b.BiomeData = make([]uint64, wn)
	for i := range b.BiomeData {
		if b.BiomeData[i], err = readU64(r); err != nil {
			return b, err
		}
	}
	return b, nil
}

func readTicks(r *bytes.Reader) ([]PersistentTick, error) {
	n, err := readVarUint(r)
	if err != nil {
		return nil, err
	}
	out := make([]PersistentTick, n)
	for i := range out {
		x, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		z, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		y, err := readI32(r)
		if err != nil {
			return nil, err
		}
		delay, err := readI32(r)
		if err != nil {
			return nil, err
		}
		priority, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		subTick, err := readI64(r)
		if err != nil {
			return nil, err
		}
		typ, err := readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = PersistentTick{X: x, Z: z, Y: y, Delay: delay, Priority: int8(priority), SubTickOrder: subTick, Type: typ}
	}
	return out, nil
}

// --- primitive binary helpers, big-endian throughout ---

func writeU16(buf *bytes.Buffer, v uint16) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeU32(buf *bytes.Buffer, v uint32) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeU64(buf *bytes.Buffer, v uint64) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeI16(buf *bytes.Buffer, v int16)  { _ = binary.Write(buf, binary.BigEndian, v) }
func writeI32(buf *bytes.Buffer, v int32)  { _ = binary.Write(buf, binary.BigEndian, v) }
func writeI64(buf *bytes.Buffer, v int64)  { _ = binary.Write(buf, binary.BigEndian, v) }
func writeF32(buf *bytes.Buffer, v float32) { _ = binary.Write(buf, binary.BigEndian, v) }
func writeF64(buf *bytes.Buffer, v float64) { _ = binary.Write(buf, binary.BigEndian, v) }

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeVarUint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

// writeVarUint writes an unsigned LEB128 varint, matching the compact
// length-prefix convention used throughout the engine's wire encodings.
func writeVarUint(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

func readU16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readU64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readI16(r *bytes.Reader) (int16, error) {
	var v int16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readI32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readI64(r *bytes.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readF32(r *bytes.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}
func readF64(r *bytes.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readVarUint(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := r.Read(out); err != nil && n > 0 {
		return nil, err
	}
	return out, nil
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func readVarUint(r *bytes.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}
