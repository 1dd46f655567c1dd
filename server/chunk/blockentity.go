package chunk

// BlockEntity is a block-type-specific piece of state attached to a single
// block position that doesn't fit in a block state id (sign text, container
// contents, and similar). The chunk package only needs enough of the
// contract to store, move, and persist one; the concrete behavior (how NBT
// maps to typed fields) is owned by the block package, which implements
// this interface.
type BlockEntity interface {
	// Pos returns the block entity's absolute position.
	Pos() BlockPos
	// TypeKey returns the registered block-entity type key, used to look up
	// a factory when loading from disk.
	TypeKey() string
	// SaveNBT serializes the block entity's additional data to an opaque
	// NBT-encoded byte blob. The chunk/region layers never interpret this
	// payload; they store and return it as-is (§6.5).
	SaveNBT() []byte
	// LoadNBT restores additional data from a blob previously produced by
	// SaveNBT. An empty slice means "no data"; implementations must accept
	// it as a no-op rather than erroring.
	LoadNBT(data []byte)
}
