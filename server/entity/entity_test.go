package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewAppliesDefaultTrackingRange(t *testing.T) {
	e := New(1, Type{Key: "minecraft:cow"}, mgl64.Vec3{0, 64, 0}, 0, 0)
	if e.TrackingRangeChunks() != DefaultTrackingRangeChunks {
		t.Fatalf("expected default tracking range %d, got %d", DefaultTrackingRangeChunks, e.TrackingRangeChunks())
	}
}

func TestNewKeepsExplicitTrackingRange(t *testing.T) {
	e := New(1, Type{Key: "minecraft:ender_dragon", TrackingRangeChunks: 10}, mgl64.Vec3{}, 0, 0)
	if e.TrackingRangeChunks() != 10 {
		t.Fatalf("expected tracking range 10, got %d", e.TrackingRangeChunks())
	}
}

func TestPositionMatchesChunkEntityInterface(t *testing.T) {
	e := New(42, Type{Key: "minecraft:zombie"}, mgl64.Vec3{1.5, 64, -2.5}, 0, 0)
	x, y, z := e.Position()
	if x != 1.5 || y != 64 || z != -2.5 {
		t.Fatalf("unexpected position: %v %v %v", x, y, z)
	}
	if e.EntityID() != 42 {
		t.Fatalf("expected entity id 42, got %d", e.EntityID())
	}
}

func TestSetTransformUpdatesAllFields(t *testing.T) {
	e := New(1, Type{Key: "minecraft:pig"}, mgl64.Vec3{}, 0, 0)
	e.SetTransform(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, -0.08, 0}, 90, 45, true)

	if got := e.Vec3Position(); got != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("unexpected position after transform: %v", got)
	}
	if got := e.Velocity(); got != (mgl64.Vec3{0, -0.08, 0}) {
		t.Fatalf("unexpected velocity after transform: %v", got)
	}
	yaw, pitch := e.Rotation()
	if yaw != 90 || pitch != 45 {
		t.Fatalf("unexpected rotation after transform: yaw=%v pitch=%v", yaw, pitch)
	}
	if !e.OnGround() {
		t.Fatal("expected onGround true after transform")
	}
}

func TestSyncedDataRoundTrip(t *testing.T) {
	e := New(1, Type{Key: "minecraft:sheep"}, mgl64.Vec3{}, 0, 0)
	e.SetData(17, uint8(1))

	v, ok := e.Data(17)
	if !ok || v.(uint8) != 1 {
		t.Fatalf("expected data index 17 to be 1, got %v ok=%v", v, ok)
	}

	packed := e.PackData()
	if len(packed) != 1 || packed[17].(uint8) != 1 {
		t.Fatalf("unexpected packed data: %v", packed)
	}
}

func TestEachEntityGetsAUniqueUUID(t *testing.T) {
	a := New(1, Type{Key: "minecraft:cow"}, mgl64.Vec3{}, 0, 0)
	b := New(2, Type{Key: "minecraft:cow"}, mgl64.Vec3{}, 0, 0)
	if a.UUID() == b.UUID() {
		t.Fatal("expected distinct entities to receive distinct UUIDs")
	}
}
