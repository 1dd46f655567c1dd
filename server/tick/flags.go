package tick

// Flags controls how a set_block call propagates: which notifications fire
// and whether shape updates cascade (§4.6.3, §6.4).
type Flags uint8

const (
	// UpdateNeighbors notifies all six neighbors' handle_neighbor_changed
	// hooks.
	UpdateNeighbors Flags = 1 << iota
	// UpdateKnownShape suppresses the recursive shape-update propagation,
	// used when the caller already knows the new shape is consistent with
	// its neighbors (e.g. world generation).
	UpdateKnownShape
	// UpdateSuppressDrops suppresses item drops that would normally result
	// from a block being replaced. Engine itself never computes drops; this
	// flag only threads through to behavior hooks that do.
	UpdateSuppressDrops
)

// UpdateAll is the common case: notify neighbors and let shape updates
// cascade.
const UpdateAll = UpdateNeighbors

// Has reports whether f has every bit in o set.
func (f Flags) Has(o Flags) bool { return f&o == o }

// without returns f with every bit in o cleared, used when building the
// child flags passed down a shape-update recursion (§4.6.3 step 4: "clear
// UPDATE_NEIGHBORS and UPDATE_SUPPRESS_DROPS").
func (f Flags) without(o Flags) Flags { return f &^ o }
