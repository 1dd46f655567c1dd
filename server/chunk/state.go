package chunk

import (
	"fmt"
	"sync"
)

// StateID is the compact 16-bit identifier for a single (block type,
// property tuple) combination. It is the only representation the hot
// set_block path touches; decoding back to a human property tuple is an
// explicit, comparatively rare operation.
type StateID uint16

// Property describes one property of a block type: an ordered, named set of
// legal values. Values are compared by their declared index, not by value
// identity, so declaration order is significant (§4.1: booleans encode
// true=0, false=1 "for compatibility with the original reference codebase";
// other enums encode by declaration order).
type Property struct {
	Name   string
	Values []string
}

// Bool returns the standard two-valued boolean property, pre-ordered so that
// Registry.Resolve("true") yields index 0 and "false" yields index 1.
func Bool(name string) Property {
	return Property{Name: name, Values: []string{"true", "false"}}
}

// Cardinality returns the number of legal values for the property.
func (p Property) Cardinality() int { return len(p.Values) }

func (p Property) indexOf(value string) (int, bool) {
	for i, v := range p.Values {
		if v == value {
			return i, true
		}
	}
	return -1, false
}

// BlockType is a registered block: a name, its ordered properties, and the
// offset of its default state within its reserved range.
type BlockType struct {
	Key           string
	Properties    []Property
	DefaultOffset int

	base  StateID
	count int
}

// Base returns the first state id in this block type's reserved range.
func (b *BlockType) Base() StateID { return b.base }

// Count returns the number of state ids (∏ cardinalities) this block type
// reserves.
func (b *BlockType) Count() int { return b.count }

// Default returns the default state id for this block type.
func (b *BlockType) Default() StateID { return b.base + StateID(b.DefaultOffset) }

// TickKey implements TickTarget, so a *BlockType can be scheduled directly
// in a TickList[*BlockType]. Keying on the registered name rather than
// pointer identity keeps dedup well-defined even across registries built
// independently (e.g. in tests).
func (b *BlockType) TickKey() string { return b.Key }

// strides holds, for property i, the multiplier Π_{j<i} c_j from §4.1's
// encoding formula.
func (b *BlockType) strides() []int {
	strides := make([]int, len(b.Properties))
	mul := 1
	for i, p := range b.Properties {
		strides[i] = mul
		mul *= p.Cardinality()
	}
	return strides
}

// Registry is the frozen, process-wide block state palette. Blocks are
// registered before Freeze is called; after freezing, Resolve/Decode/Mutate
// are safe for concurrent use (they only read immutable tables).
type Registry struct {
	mu     sync.Mutex
	frozen bool

	types []*BlockType
	byKey map[string]*BlockType

	// decodeBlock and decodeOffset let Decode and BlockFor run in O(1): they
	// map a state id directly to its owning type and offset within that
	// type's range, rather than scanning registered ranges.
	decodeBlock  []*BlockType
	decodeOffset []int
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*BlockType)}
}

// ErrFrozen is returned by Register when called after Freeze.
var ErrFrozen = fmt.Errorf("chunk: registry already frozen")

// ErrUnknownBlock is returned when a block key has no registered type.
type ErrUnknownBlock struct{ Key string }

func (e *ErrUnknownBlock) Error() string { return fmt.Sprintf("chunk: unknown block %q", e.Key) }

// ErrUnknownProperty is returned when a (block, property-name) or
// (block, property-name, value) combination is not registered.
type ErrUnknownProperty struct{ Block, Property, Value string }

func (e *ErrUnknownProperty) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("chunk: block %q has no property %q", e.Block, e.Property)
	}
	return fmt.Sprintf("chunk: block %q property %q has no value %q", e.Block, e.Property, e.Value)
}

// Register reserves a contiguous state id range [base, base+count) for a new
// block type. Registration must happen before Freeze; calling it afterward
// returns ErrFrozen.
func (r *Registry) Register(key string, properties []Property, defaultOffset int) (*BlockType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return nil, ErrFrozen
	}
	if _, exists := r.byKey[key]; exists {
		return nil, fmt.Errorf("chunk: block %q already registered", key)
	}

	count := 1
	for _, p := range properties {
		count *= p.Cardinality()
	}
	if count == 0 {
		count = 1
	}

	bt := &BlockType{Key: key, Properties: properties, DefaultOffset: defaultOffset, count: count}
	r.types = append(r.types, bt)
	r.byKey[key] = bt
	return bt, nil
}

// Freeze computes the O(1) decode tables and assigns base offsets to every
// registered block type in registration order. No Register call is
// permitted after this returns.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	var next StateID
	total := 0
	for _, bt := range r.types {
		bt.base = next
		next += StateID(bt.count)
		total += bt.count
	}
	r.decodeBlock = make([]*BlockType, total)
	r.decodeOffset = make([]int, total)
	for _, bt := range r.types {
		for off := 0; off < bt.count; off++ {
			r.decodeBlock[int(bt.base)+off] = bt
			r.decodeOffset[int(bt.base)+off] = off
		}
	}
	r.frozen = true
}

// Lookup returns the registered BlockType for a key.
func (r *Registry) Lookup(key string) (*BlockType, error) {
	bt, ok := r.byKey[key]
	if !ok {
		return nil, &ErrUnknownBlock{Key: key}
	}
	return bt, nil
}

// PropValue is a single (property name, value) pair used to resolve a state
// id, e.g. [("facing", "north"), ("open", "true")].
type PropValue struct {
	Name, Value string
}

// Resolve computes the state id for a block key and a set of property
// values, in O(|properties|). Properties omitted from values take their
// index 0 default.
func (r *Registry) Resolve(key string, values []PropValue) (StateID, error) {
	bt, err := r.Lookup(key)
	if err != nil {
		return 0, err
	}
	strides := bt.strides()
	offset := 0
	for i, p := range bt.Properties {
		idx := 0
		for _, pv := range values {
			if pv.Name == p.Name {
				found, ok := p.indexOf(pv.Value)
				if !ok {
					return 0, &ErrUnknownProperty{Block: key, Property: p.Name, Value: pv.Value}
				}
				idx = found
				break
			}
		}
		offset += idx * strides[i]
	}
	return bt.base + StateID(offset), nil
}

// BlockFor returns the BlockType a state id belongs to.
func (r *Registry) BlockFor(id StateID) (*BlockType, error) {
	if int(id) >= len(r.decodeBlock) || r.decodeBlock[id] == nil {
		return nil, fmt.Errorf("chunk: state id %d is not in any registered range", id)
	}
	return r.decodeBlock[id], nil
}

// Decode returns the full property-value tuple for a state id, in
// declaration order.
func (r *Registry) Decode(id StateID) ([]PropValue, error) {
	bt, err := r.BlockFor(id)
	if err != nil {
		return nil, err
	}
	offset := r.decodeOffset[id]
	strides := bt.strides()
	out := make([]PropValue, len(bt.Properties))
	for i := len(bt.Properties) - 1; i >= 0; i-- {
		idx := offset / strides[i]
		offset -= idx * strides[i]
		out[i] = PropValue{Name: bt.Properties[i].Name, Value: bt.Properties[i].Values[idx]}
	}
	return out, nil
}

// Mutate returns a new state id obtained by changing a single named property
// on an existing state id, without rebuilding the full tuple.
func (r *Registry) Mutate(id StateID, name, value string) (StateID, error) {
	bt, err := r.BlockFor(id)
	if err != nil {
		return 0, err
	}
	strides := bt.strides()
	offset := r.decodeOffset[id]
	for i, p := range bt.Properties {
		if p.Name != name {
			continue
		}
		newIdx, ok := p.indexOf(value)
		if !ok {
			return 0, &ErrUnknownProperty{Block: bt.Key, Property: name, Value: value}
		}
		oldIdx := (offset / strides[i]) % p.Cardinality()
		offset += (newIdx - oldIdx) * strides[i]
		return bt.base + StateID(offset), nil
	}
	return 0, &ErrUnknownProperty{Block: bt.Key, Property: name}
}
