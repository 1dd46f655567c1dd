package world

import (
	"github.com/blockforge/core/server/entity"
)

// entitySaveAdapter makes a live *entity.Entity satisfy region.SaveableEntity.
// entity.Entity's own UUID() returns uuid.UUID (for convenient mgl64/uuid
// interop in that package); region.SaveableEntity needs the plain [16]byte
// the persistence codec stores, and a TypeKey() accessor alongside the
// richer Type() struct entity.Entity exposes. Rather than reshape
// entity.Entity around one caller's interface, this adapter bridges the two
// shapes and is what gets handed to chunk.Chunk.AddEntity, so
// region.ChunkToPersistent's own type assertion to SaveableEntity succeeds.
type entitySaveAdapter struct {
	*entity.Entity
}

func (a entitySaveAdapter) TypeKey() string { return a.Entity.Type().Key }

func (a entitySaveAdapter) UUID() [16]byte {
	return [16]byte(a.Entity.UUID())
}

func (a entitySaveAdapter) Velocity() (x, y, z float64) {
	v := a.Entity.Velocity()
	return v.X(), v.Y(), v.Z()
}

func (a entitySaveAdapter) Rotation() (yaw, pitch float32) {
	return a.Entity.Rotation()
}

func (a entitySaveAdapter) OnGround() bool {
	return a.Entity.OnGround()
}

// SaveNBT is opaque additional entity data beyond position/velocity/
// rotation/uuid/type, all of which PersistentEntity already carries as
// first-class fields; this entity model has nothing further to persist.
func (a entitySaveAdapter) SaveNBT() []byte {
	return nil
}
