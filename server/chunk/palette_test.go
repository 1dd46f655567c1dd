package chunk

import (
	"reflect"
	"testing"
)

func TestPaletteContainerPromotion(t *testing.T) {
	c := NewHomogeneous(16, StateID(0))
	c.Set(0, 0, 0, StateID(0))
	if !c.IsHomogeneous() {
		t.Fatalf("setting the same value must keep the container Homogeneous")
	}

	c.Set(1, 2, 3, StateID(5))
	if c.IsHomogeneous() {
		t.Fatalf("setting a distinct value must promote the container to Heterogeneous")
	}
	if c.PaletteLen() != 2 {
		t.Fatalf("palette length = %d, want 2", c.PaletteLen())
	}
	values := c.Values()
	found := map[StateID]bool{values[0]: true, values[1]: true}
	if !found[StateID(0)] || !found[StateID(5)] {
		t.Fatalf("palette does not contain exactly both values, got %v", values)
	}
	if c.Get(1, 2, 3) != StateID(5) {
		t.Fatalf("Get after Set returned wrong value")
	}
	if c.Get(0, 0, 0) != StateID(0) {
		t.Fatalf("unrelated cell changed value")
	}
}

func TestPaletteContainerDemotesWhenUnique(t *testing.T) {
	c := NewHomogeneous(4, BiomeID(1))
	c.Set(0, 0, 0, BiomeID(2))
	if c.IsHomogeneous() {
		t.Fatalf("expected promotion")
	}
	c.Set(0, 0, 0, BiomeID(1))
	if !c.IsHomogeneous() {
		t.Fatalf("container should demote back to Homogeneous once only one distinct value remains")
	}
	if c.Get(0, 0, 0) != BiomeID(1) {
		t.Fatalf("value lost across demotion")
	}
}

func TestBitsForPaletteLen(t *testing.T) {
	cases := []struct {
		length int
		max16  bool
		want   int
	}{
		{1, true, 1},
		{2, true, 1},
		{3, true, 2},
		{4, true, 2},
		{5, true, 4},
		{16, true, 4},
		{17, true, 8},
		{256, true, 8},
		{257, true, 16},
		{5, false, 4},
		{17, false, 8},
	}
	for _, c := range cases {
		if got := BitsForPaletteLen(c.length, c.max16); got != c.want {
			t.Fatalf("BitsForPaletteLen(%d, %v) = %d, want %d", c.length, c.max16, got, c.want)
		}
	}
}

func TestPackUnpackIndicesRoundTrip(t *testing.T) {
	indices := make([]uint16, BlocksPerSection)
	for i := range indices {
		indices[i] = uint16(i % 7)
	}
	bits := BitsForPaletteLen(7, true)
	words := PackIndices(indices, bits)
	got := UnpackIndices(words, bits, len(indices))
	if !reflect.DeepEqual(got, indices) {
		t.Fatalf("pack/unpack round trip mismatch")
	}
}

func TestToCubeFromCubeRoundTrip(t *testing.T) {
	c := NewHomogeneous(16, StateID(1))
	c.Set(0, 0, 0, StateID(2))
	c.Set(5, 5, 5, StateID(3))

	cube := c.ToCube()
	rebuilt := FromCube(16, cube)
	if rebuilt.Get(0, 0, 0) != StateID(2) || rebuilt.Get(5, 5, 5) != StateID(3) || rebuilt.Get(1, 1, 1) != StateID(1) {
		t.Fatalf("FromCube(ToCube()) did not reproduce the original container")
	}
}
