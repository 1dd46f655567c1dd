package chunkmap

import (
	"context"

	"github.com/blockforge/core/server/chunk"
)

// FlatGenerator is a minimal superflat terrain generator: every column gets
// the same fixed layer stack regardless of status or neighbors. Real
// terrain generation (noise, structures, carvers, features) is explicitly
// out of scope; this exists only so the generation pipeline has something
// concrete to drive end to end, supplementing the distilled spec from the
// original's FlatChunkGenerator.
type FlatGenerator struct {
	// Layers lists block states from the bottom up, e.g.
	// [bedrock, dirt, dirt, grass]. Any height above len(Layers) stays air.
	Layers []chunk.StateID
}

// NewFlatGenerator builds a generator with the given bottom-up layer stack.
func NewFlatGenerator(layers []chunk.StateID) *FlatGenerator {
	return &FlatGenerator{Layers: layers}
}

// Generate implements Generator. Every status step is satisfied
// immediately: Empty allocates the chunk (done by the caller), Noise lays
// down the flat layer stack, every other step is a no-op placeholder since
// a flat world has no structures, carving, or features to place.
func (g *FlatGenerator) Generate(ctx context.Context, target chunk.Status, c *chunk.Chunk, neighbors *NeighborCache) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if target != chunk.Noise {
		return nil
	}

	minY := c.MinY()
	for i, state := range g.Layers {
		y := minY + int32(i)
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				c.SetBlockAt(chunk.NewBlockPos(c.Pos().X*16+int32(x), y, c.Pos().Z*16+int32(z)), state)
			}
		}
	}

	top := minY + int32(len(g.Layers))
	for _, t := range chunk.HeightmapTypes {
		hm := c.Heightmaps().Get(t)
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				hm.SetHeight(x, z, top)
			}
		}
	}
	return nil
}
