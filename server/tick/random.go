package tick

import (
	"math/rand"

	"github.com/blockforge/core/server/chunk"
)

// DefaultRandomTickSections is the default number of sections per chunk
// sampled for random ticks each tick (§4.6.4).
const DefaultRandomTickSections = 16

// DefaultRandomTickBlocksPerSection is the default number of random
// positions sampled per chosen section (§4.6.4).
const DefaultRandomTickBlocksPerSection = 3

// RandomTicker samples a fixed number of blocks per section per chunk per
// tick and dispatches to any block whose behavior opts in via
// IsRandomlyTicking, matching vanilla's random tick speed mechanic.
type RandomTicker struct {
	Sections         int
	BlocksPerSection int
	Rand             *rand.Rand
}

// NewRandomTicker creates a ticker with the default sampling rates, seeded
// from the given source (pass rand.New(rand.NewSource(seed)) for
// determinism in tests; a nil source falls back to a generator seeded
// with 1).
func NewRandomTicker(r *rand.Rand) *RandomTicker {
	if r == nil {
		r = rand.New(rand.NewSource(1))
	}
	return &RandomTicker{
		Sections:         DefaultRandomTickSections,
		BlocksPerSection: DefaultRandomTickBlocksPerSection,
		Rand:             r,
	}
}

// Tick samples random positions across c's sections and, for any state
// whose behavior reports IsRandomlyTicking, calls its RandomTick hook.
func (rt *RandomTicker) Tick(w World, c *chunk.Chunk) {
	sections := rt.Sections
	if sections > c.SectionCount() {
		sections = c.SectionCount()
	}
	pos := c.Pos()

	for i := 0; i < sections; i++ {
		idx := rt.Rand.Intn(c.SectionCount())
		section := c.Section(idx)
		if section == nil || section.IsEmpty() {
			continue
		}
		for j := 0; j < rt.BlocksPerSection; j++ {
			x := rt.Rand.Intn(16)
			y := rt.Rand.Intn(16)
			z := rt.Rand.Intn(16)
			state := section.BlockAt(x, y, z)
			behavior := w.BehaviorForState(state)
			if !behavior.IsRandomlyTicking(state) {
				continue
			}
			worldY := c.MinY() + int32(idx)*16 + int32(y)
			blockPos := chunk.NewBlockPos(pos.X*16+int32(x), worldY, pos.Z*16+int32(z))
			behavior.RandomTick(state, w, blockPos)
		}
	}
}
