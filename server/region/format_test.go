package region

import (
	"testing"

	"github.com/blockforge/core/server/chunk"
)

func TestPosFromChunk(t *testing.T) {
	cases := []struct {
		cx, cz int32
		want   Pos
	}{
		{0, 0, Pos{0, 0}},
		{31, 31, Pos{0, 0}},
		{32, 32, Pos{1, 1}},
		{-1, -1, Pos{-1, -1}},
		{-32, -32, Pos{-1, -1}},
		{-33, -33, Pos{-2, -2}},
	}
	for _, c := range cases {
		if got := PosFromChunk(c.cx, c.cz); got != c.want {
			t.Fatalf("PosFromChunk(%d,%d) = %v, want %v", c.cx, c.cz, got, c.want)
		}
	}
}

func TestLocalChunkPos(t *testing.T) {
	cases := []struct {
		cx, cz   int32
		wx, wz int
	}{
		{0, 0, 0, 0},
		{31, 31, 31, 31},
		{32, 32, 0, 0},
		{-1, -1, 31, 31},
		{-32, -32, 0, 0},
	}
	for _, c := range cases {
		x, z := LocalChunkPos(c.cx, c.cz)
		if x != c.wx || z != c.wz {
			t.Fatalf("LocalChunkPos(%d,%d) = (%d,%d), want (%d,%d)", c.cx, c.cz, x, z, c.wx, c.wz)
		}
	}
}

func TestChunkIndex(t *testing.T) {
	if ChunkIndex(0, 0) != 0 {
		t.Fatalf("ChunkIndex(0,0) should be 0")
	}
	if ChunkIndex(31, 0) != 31 {
		t.Fatalf("ChunkIndex(31,0) should be 31")
	}
	if ChunkIndex(0, 1) != 32 {
		t.Fatalf("ChunkIndex(0,1) should be 32")
	}
	if ChunkIndex(31, 31) != 1023 {
		t.Fatalf("ChunkIndex(31,31) should be 1023")
	}
}

func TestChunkEntryRoundTrip(t *testing.T) {
	e := ChunkEntry{SectorOffset: 42, SizeBytes: 12345, Status: chunk.Full}
	got := EntryFromBytes(e.ToBytes())
	if got != e {
		t.Fatalf("entry round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestChunkEntryEmpty(t *testing.T) {
	var e ChunkEntry
	if e.Exists() {
		t.Fatalf("zero-value entry should not exist")
	}
	if e.SectorCount() != 0 {
		t.Fatalf("zero-value entry should occupy 0 sectors")
	}
}

func TestSectorCount(t *testing.T) {
	cases := []struct {
		size uint32
		want uint32
	}{
		{0, 0},
		{4096, 1},
		{4097, 2},
		{12000, 3},
	}
	for _, c := range cases {
		e := ChunkEntry{SectorOffset: 1, SizeBytes: c.size}
		if got := e.SectorCount(); got != c.want {
			t.Fatalf("SectorCount(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestFindFreeSectorsEmpty(t *testing.T) {
	h := NewHeader()
	if got := h.FindFreeSectors(1, 3); got != FirstDataSector {
		t.Fatalf("empty header should allocate at FirstDataSector, got %d", got)
	}
}

func TestFindFreeSectorsGap(t *testing.T) {
	h := NewHeader()
	h.Entries[0] = ChunkEntry{SectorOffset: 3, SizeBytes: 8000}  // sectors 3-4
	h.Entries[1] = ChunkEntry{SectorOffset: 10, SizeBytes: 8000} // sectors 10-11

	if got := h.FindFreeSectors(3, 12); got != 5 {
		t.Fatalf("expected gap at sector 5, got %d", got)
	}
	if got := h.FindFreeSectors(6, 12); got != 12 {
		t.Fatalf("expected append at file end (12), got %d", got)
	}
}

func TestHeaderByteRoundTrip(t *testing.T) {
	h := NewHeader()
	h.Entries[5] = ChunkEntry{SectorOffset: 3, SizeBytes: 4096, Status: chunk.Full}
	restored := HeaderFromBytes(h.ToBytes())
	if restored.Entries[5] != h.Entries[5] {
		t.Fatalf("header round trip mismatch at index 5")
	}
}
