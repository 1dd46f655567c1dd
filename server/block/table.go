package block

import "github.com/blockforge/core/server/chunk"

// Table maps block types to their behaviors, keyed by the same *BlockType
// pointers a frozen chunk.Registry hands out. Every registered block type
// gets DefaultBehavior unless a concrete behavior is set for it, matching
// the teacher's "initialize all blocks with default behavior, then override
// specific ones" registration order.
type Table struct {
	byType map[*chunk.BlockType]Behavior
	def    Behavior
}

// NewTable creates a table that falls back to DefaultBehavior{} for any
// block type without an explicit entry.
func NewTable() *Table {
	return &Table{byType: make(map[*chunk.BlockType]Behavior), def: DefaultBehavior{}}
}

// Set registers the behavior for a block type, overriding any previous
// entry (including the implicit default).
func (t *Table) Set(bt *chunk.BlockType, b Behavior) {
	t.byType[bt] = b
}

// Behavior returns the behavior registered for a block type, or
// DefaultBehavior if none was set.
func (t *Table) Behavior(bt *chunk.BlockType) Behavior {
	if b, ok := t.byType[bt]; ok {
		return b
	}
	return t.def
}

// BehaviorForState resolves a state id to its block type via registry, then
// to its behavior.
func (t *Table) BehaviorForState(registry *chunk.Registry, id chunk.StateID) (Behavior, error) {
	bt, err := registry.BlockFor(id)
	if err != nil {
		return nil, err
	}
	return t.Behavior(bt), nil
}
