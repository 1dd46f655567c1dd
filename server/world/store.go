package world

import (
	"github.com/blockforge/core/server/chunk"
	"github.com/blockforge/core/server/region"
)

// biomeTable is a tiny name<->id biome registry (§6.1's biome palette),
// satisfying region.BiomeTable. Unlike chunk.Registry, biome identity has
// no properties to resolve, so a pair of maps is enough.
type biomeTable struct {
	byID  map[chunk.BiomeID]string
	byKey map[string]chunk.BiomeID
}

func newBiomeTable(keys ...string) *biomeTable {
	t := &biomeTable{byID: make(map[chunk.BiomeID]string), byKey: make(map[string]chunk.BiomeID)}
	for i, key := range keys {
		id := chunk.BiomeID(i)
		t.byID[id] = key
		t.byKey[key] = id
	}
	return t
}

func (t *biomeTable) KeyForBiome(id chunk.BiomeID) (string, bool) {
	k, ok := t.byID[id]
	return k, ok
}

func (t *biomeTable) BiomeForKey(key string) (chunk.BiomeID, bool) {
	id, ok := t.byKey[key]
	return id, ok
}

// regionStore adapts a *region.Manager plus the registries needed to
// decode/encode a persisted chunk into the narrow chunkmap.Store shape
// (§6.1, §6.5). It owns the only reference to the conversion functions so
// neither chunkmap nor region need to know about each other.
type regionStore struct {
	manager  *region.Manager
	states   *chunk.Registry
	biomes   region.BiomeTable
	minY     int32
	height   int32
	defaultB chunk.BiomeID
}

func newRegionStore(m *region.Manager, states *chunk.Registry, biomes region.BiomeTable, minY, height int32, defaultBiome chunk.BiomeID) *regionStore {
	return &regionStore{manager: m, states: states, biomes: biomes, minY: minY, height: height, defaultB: defaultBiome}
}

func (s *regionStore) AcquireChunk(pos chunk.ChunkPos) (bool, error) {
	return s.manager.AcquireChunk(pos)
}

func (s *regionStore) ReleaseChunk(pos chunk.ChunkPos) error {
	return s.manager.ReleaseChunk(pos)
}

func (s *regionStore) LoadChunk(pos chunk.ChunkPos) (*chunk.Chunk, chunk.Status, bool, error) {
	persistent, status, ok, err := s.manager.LoadChunk(pos)
	if err != nil || !ok {
		return nil, 0, ok, err
	}
	c, err := region.PersistentToChunk(s.states, s.biomes, persistent, pos, status, s.minY, s.height, s.defaultB)
	if err != nil {
		return nil, 0, false, err
	}
	return c, status, true, nil
}

func (s *regionStore) SaveChunk(pos chunk.ChunkPos, c *chunk.Chunk, status chunk.Status) error {
	persistent, err := region.ChunkToPersistent(s.states, s.biomes, c)
	if err != nil {
		return err
	}
	return s.manager.SaveChunk(pos, persistent, status)
}
