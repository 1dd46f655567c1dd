package player

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/blockforge/core/server/chunk"
)

type fakeConn struct {
	sent        []Packet
	disconnected string
}

func (c *fakeConn) SendPacket(p Packet)          { c.sent = append(c.sent, p) }
func (c *fakeConn) SendBundle(fn func(b Bundle)) { fn(&fakeBundle{c}) }
func (c *fakeConn) Disconnect(reason string)     { c.disconnected = reason }

type fakeBundle struct{ c *fakeConn }

func (b *fakeBundle) Add(p Packet) { b.c.sent = append(b.c.sent, p) }

func newTestPlayer() (*Player, *fakeConn) {
	conn := &fakeConn{}
	profile := GameProfile{UUID: uuid.New(), Name: "Steve"}
	p := New(1, profile, conn, mgl64.Vec3{8, 64, 8})
	return p, conn
}

func TestNewDerivesChunkPosFromSpawnPosition(t *testing.T) {
	p, _ := newTestPlayer()
	want := chunk.NewChunkPos(0, 0)
	if got := p.ChunkPos(); got != want {
		t.Fatalf("expected chunk pos %v, got %v", want, got)
	}
	if p.ViewDistance() != DefaultViewDistance {
		t.Fatalf("expected default view distance %d, got %d", DefaultViewDistance, p.ViewDistance())
	}
}

func TestMoveReturnsPreviousChunkPos(t *testing.T) {
	p, _ := newTestPlayer()
	prev := p.Move(mgl64.Vec3{8 + 16, 64, 8}, 90, 0)
	if prev != chunk.NewChunkPos(0, 0) {
		t.Fatalf("expected previous chunk (0,0), got %v", prev)
	}
	if got := p.ChunkPos(); got != chunk.NewChunkPos(1, 0) {
		t.Fatalf("expected new chunk (1,0), got %v", got)
	}
}

func TestPendingChunkQueueDrainsFIFO(t *testing.T) {
	p, _ := newTestPlayer()
	p.QueueChunkSend(chunk.NewChunkPos(0, 0))
	p.QueueChunkSend(chunk.NewChunkPos(1, 0))
	p.QueueChunkSend(chunk.NewChunkPos(2, 0))

	drained := p.DrainPendingChunks(2)
	if len(drained) != 2 || drained[0] != chunk.NewChunkPos(0, 0) || drained[1] != chunk.NewChunkPos(1, 0) {
		t.Fatalf("unexpected drained chunks: %v", drained)
	}
	rest := p.DrainPendingChunks(10)
	if len(rest) != 1 || rest[0] != chunk.NewChunkPos(2, 0) {
		t.Fatalf("unexpected remaining chunks: %v", rest)
	}
}

func TestCancelPendingChunkRemovesOnlyThatEntry(t *testing.T) {
	p, _ := newTestPlayer()
	p.QueueChunkSend(chunk.NewChunkPos(0, 0))
	p.QueueChunkSend(chunk.NewChunkPos(1, 0))
	p.CancelPendingChunk(chunk.NewChunkPos(0, 0))

	rest := p.DrainPendingChunks(10)
	if len(rest) != 1 || rest[0] != chunk.NewChunkPos(1, 0) {
		t.Fatalf("expected only (1,0) remaining, got %v", rest)
	}
}

func TestConnectionSendBundleDeliversAllPackets(t *testing.T) {
	_, conn := newTestPlayer()
	conn.SendBundle(func(b Bundle) {
		b.Add("spawn")
		b.Add("data")
	})
	if len(conn.sent) != 2 {
		t.Fatalf("expected 2 bundled packets, got %d", len(conn.sent))
	}
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	p, _ := newTestPlayer()
	p.GameMode = Creative
	p.Health = 18.5

	snap := FromPlayer(p, [3]float64{0, -0.08, 0}, true, false,
		[]InventorySlot{{Slot: 0, Payload: []byte{1, 2, 3}}}, 0)

	data := snap.Encode()
	got, ok := DecodeSnapshot(data)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got.Pos != snap.Pos || got.GameMode != Creative || got.Health != 18.5 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Inventory) != 1 || got.Inventory[0].Slot != 0 || len(got.Inventory[0].Payload) != 3 {
		t.Fatalf("unexpected inventory round trip: %+v", got.Inventory)
	}
	if got.Dimension != "minecraft:overworld" {
		t.Fatalf("expected dimension to round trip, got %q", got.Dimension)
	}
}

func TestDecodeSnapshotRejectsTruncatedInput(t *testing.T) {
	_, ok := DecodeSnapshot([]byte{0, 0, 0, 1})
	if ok {
		t.Fatal("expected truncated input to fail decode")
	}
}
