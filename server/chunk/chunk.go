package chunk

import "sync"

// FluidType is the tick target used for scheduled fluid ticks (water/lava
// flow). It is intentionally a thin string-keyed wrapper rather than a
// pointer into a fluid registry: fluids are a small closed set and this
// package has no fluid registry of its own to point into.
type FluidType string

// TickKey implements TickTarget.
func (f FluidType) TickKey() string { return string(f) }

// BlockTick is a scheduled tick targeting a block type.
type BlockTick = ScheduledTick[*BlockType]

// FluidTick is a scheduled tick targeting a fluid type.
type FluidTick = ScheduledTick[FluidType]

// Chunk is one 16-wide, height-tall column of the world: its sections, its
// four heightmaps, the scheduled-tick lists that target positions inside
// it, its block entities and resident entities, and the bookkeeping needed
// to know when and what to persist and broadcast (§3).
type Chunk struct {
	mu sync.Mutex

	pos    ChunkPos
	minY   int32
	height int32
	status Status

	sections []*Section

	heightmaps *Heightmaps

	blockTicks *TickList[*BlockType]
	fluidTicks *TickList[FluidType]

	blockEntities map[BlockPos]BlockEntity
	entities      map[int32]Entity

	dirty bool

	// pending maps a section index to the set of packed local coordinates
	// (PackLocal) changed since the last broadcast drain, per §4.6.3.
	pending map[int][]uint16
}

// SectionCount returns the number of vertical sections (height / 16).
func (c *Chunk) SectionCount() int { return len(c.sections) }

// New creates an empty chunk at Empty status: minY and height must be
// multiples of 16. Sections are populated with air and the given default
// biome; heightmaps start unprimed (all minY) and must be primed
// separately once real terrain exists.
func New(pos ChunkPos, minY, height int32, defaultBiome BiomeID) *Chunk {
	n := int(height / 16)
	sections := make([]*Section, n)
	for i := range sections {
		sections[i] = NewSection(defaultBiome)
	}
	return &Chunk{
		pos:           pos,
		minY:          minY,
		height:        height,
		status:        Empty,
		sections:      sections,
		heightmaps:    NewHeightmaps(minY, height),
		blockTicks:    NewTickList[*BlockType](),
		fluidTicks:    NewTickList[FluidType](),
		blockEntities: make(map[BlockPos]BlockEntity),
		entities:      make(map[int32]Entity),
		pending:       make(map[int][]uint16),
	}
}

// Pos returns the chunk's position.
func (c *Chunk) Pos() ChunkPos { return c.pos }

// MinY returns the world's minimum Y coordinate this chunk was built for.
func (c *Chunk) MinY() int32 { return c.minY }

// Height returns the world's total height this chunk was built for.
func (c *Chunk) Height() int32 { return c.height }

// Status returns the chunk's current generation status.
func (c *Chunk) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Advance moves the chunk to a new status. It panics if the new status is
// lower than the current one (an equal status, or skipping ahead over
// several steps, is accepted): the Proto→Full pipeline is
// one-way and irreversible (§3), and a caller attempting to go backward is
// a programming error, not a recoverable condition.
func (c *Chunk) Advance(to Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if to < c.status {
		panic("chunk: status cannot move backward")
	}
	c.status = to
}

// sectionIndex converts an absolute Y to an index into c.sections, and
// reports whether it is in range.
func (c *Chunk) sectionIndex(y int32) (int, bool) {
	if y < c.minY || y >= c.minY+c.height {
		return 0, false
	}
	return int((y - c.minY) / 16), true
}

// Section returns the section at the given vertical index, or nil if out
// of range.
func (c *Chunk) Section(index int) *Section {
	if index < 0 || index >= len(c.sections) {
		return nil
	}
	return c.sections[index]
}

// InBounds reports whether a block position falls within this chunk's
// column and vertical range.
func (c *Chunk) InBounds(pos BlockPos) bool {
	if pos.Chunk() != c.pos {
		return false
	}
	_, ok := c.sectionIndex(pos.Y)
	return ok
}

// BlockAt returns the block state at an absolute position within this
// chunk. It panics if the position is out of bounds; callers must check
// InBounds (or rely on a caller such as World.SetBlock that already bounds
// checks) first.
func (c *Chunk) BlockAt(pos BlockPos) StateID {
	idx, ok := c.sectionIndex(pos.Y)
	if !ok {
		panic("chunk: block position out of vertical range")
	}
	x, y, z := pos.Relative()
	return c.sections[idx].BlockAt(x, y, z)
}

// SetBlockAt sets the block state at an absolute position, recording the
// change in the chunk's pending-per-section set and marking the chunk
// dirty. It returns the previous state, or the same state with changed=false if
// the value did not actually change (§4.6.3 step 2: "or None if
// unchanged").
func (c *Chunk) SetBlockAt(pos BlockPos, id StateID) (old StateID, changed bool) {
	idx, ok := c.sectionIndex(pos.Y)
	if !ok {
		panic("chunk: block position out of vertical range")
	}
	x, y, z := pos.Relative()
	section := c.sections[idx]
	old = section.BlockAt(x, y, z)
	if old == id {
		return old, false
	}
	section.SetBlockAt(x, y, z, id)

	c.mu.Lock()
	c.pending[idx] = append(c.pending[idx], PackLocal(x, y, z))
	c.dirty = true
	c.mu.Unlock()

	return old, true
}

// DrainPending removes and returns the section-indexed set of positions
// changed since the last drain, for the broadcast phase (§4.6.3).
func (c *Chunk) DrainPending() map[int][]uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = make(map[int][]uint16)
	return out
}

// HasPending reports whether any block changes are waiting to be
// broadcast.
func (c *Chunk) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Heightmaps returns the chunk's four heightmaps.
func (c *Chunk) Heightmaps() *Heightmaps { return c.heightmaps }

// BlockTicks returns the chunk's scheduled block-tick list.
func (c *Chunk) BlockTicks() *TickList[*BlockType] { return c.blockTicks }

// FluidTicks returns the chunk's scheduled fluid-tick list.
func (c *Chunk) FluidTicks() *TickList[FluidType] { return c.fluidTicks }

// SetBlockTicks replaces the chunk's block-tick list, used when restoring
// a chunk loaded from disk.
func (c *Chunk) SetBlockTicks(l *TickList[*BlockType]) { c.blockTicks = l }

// SetFluidTicks replaces the chunk's fluid-tick list.
func (c *Chunk) SetFluidTicks(l *TickList[FluidType]) { c.fluidTicks = l }

// BlockEntity returns the block entity at pos, if any.
func (c *Chunk) BlockEntity(pos BlockPos) (BlockEntity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	be, ok := c.blockEntities[pos]
	return be, ok
}

// AddBlockEntity registers a block entity at its own position and marks
// the chunk dirty.
func (c *Chunk) AddBlockEntity(be BlockEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockEntities[be.Pos()] = be
	c.dirty = true
}

// RemoveBlockEntity removes any block entity at pos.
func (c *Chunk) RemoveBlockEntity(pos BlockPos) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blockEntities[pos]; ok {
		delete(c.blockEntities, pos)
		c.dirty = true
	}
}

// BlockEntities returns every block entity in the chunk.
func (c *Chunk) BlockEntities() []BlockEntity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]BlockEntity, 0, len(c.blockEntities))
	for _, be := range c.blockEntities {
		out = append(out, be)
	}
	return out
}

// AddEntity registers an entity as resident in this chunk.
func (c *Chunk) AddEntity(e Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[e.EntityID()] = e
}

// RemoveEntity removes an entity from this chunk's residency (called when
// it moves to another chunk, dies, or unloads).
func (c *Chunk) RemoveEntity(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entities, id)
}

// Entities returns every entity currently resident in this chunk.
func (c *Chunk) Entities() []Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entity, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e)
	}
	return out
}

// IsDirty reports whether the chunk has unsaved changes.
func (c *Chunk) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// ClearDirty marks the chunk as saved. Callers must hold the chunk's
// generation/save lock externally so that no concurrent SetBlockAt races
// with a save in progress (§5: chunk holder contract).
func (c *Chunk) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

// MarkDirty forces the dirty flag, used when mutating a chunk through a
// path that bypasses SetBlockAt (e.g. restoring block/fluid ticks or
// entities during generation).
func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
}
