package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/blockforge/core/server/chunk"
	"github.com/blockforge/core/server/entity"
	"github.com/blockforge/core/server/player"
	"github.com/blockforge/core/server/tracker"
)

// PlayerTicketLevel is the ticket level added at every chunk in a player's
// view, the highest urgency level, so every chunk in view is driven to Full
// (§4.4, §4.7).
const PlayerTicketLevel int32 = 0

// AddPlayer joins a new player into the world at pos: it registers the
// player's initial ticket coverage and viewer registration, queues its
// starting view for chunk streaming, and returns the *player.Player handle
// the caller (the connection/session layer) holds onto.
func (w *World) AddPlayer(profile player.GameProfile, conn player.Connection, pos mgl64.Vec3) *player.Player {
	w.mu.Lock()
	id := w.nextEntity
	w.nextEntity++
	w.mu.Unlock()

	p := player.New(id, profile, conn, pos)
	view := tracker.View(p.ChunkPos(), p.ViewDistance())

	for _, cpos := range view {
		w.tickets.AddTicket(cpos, PlayerTicketLevel)
		p.QueueChunkSend(cpos)
	}
	w.areas.Join(id, view)

	toSpawn, _ := w.entities.ViewChanged(id, view, nil)
	for _, te := range toSpawn {
		if e, ok := te.(*entity.Entity); ok {
			conn.SendPacket(spawnPacketFor(e))
		}
	}

	w.mu.Lock()
	w.players[id] = p
	w.sessions[id] = &playerSession{lastView: view}
	w.mu.Unlock()
	return p
}

// RemovePlayer leaves a player, releasing its ticket coverage and viewer
// registrations.
func (w *World) RemovePlayer(id int32) {
	w.mu.Lock()
	_, ok := w.players[id]
	sess := w.sessions[id]
	delete(w.players, id)
	delete(w.sessions, id)
	w.mu.Unlock()
	if !ok {
		return
	}

	var view []chunk.ChunkPos
	if sess != nil {
		view = sess.lastView
	}
	for _, pos := range view {
		w.tickets.RemoveTicket(pos, PlayerTicketLevel)
	}
	w.areas.Leave(id, view)
	w.entities.Leave(id)
}

// tickPlayers runs the player half of §5's per-tick ordering: diff each
// player's view against its last tracked view (picking up ticket/tracker
// changes from movement the network layer applied this tick), then drain
// each player's chunk-send queue at its configured rate.
func (w *World) tickPlayers() {
	w.mu.Lock()
	players := make([]*player.Player, 0, len(w.players))
	for _, p := range w.players {
		players = append(players, p)
	}
	w.mu.Unlock()

	for _, p := range players {
		w.updatePlayerView(p)
		w.sendPendingChunks(p)
	}
}

func (w *World) updatePlayerView(p *player.Player) {
	w.mu.Lock()
	sess, ok := w.sessions[p.EntityID]
	w.mu.Unlock()
	if !ok {
		return
	}

	current := tracker.View(p.ChunkPos(), p.ViewDistance())
	added, removed := tracker.DiffView(sess.lastView, current)
	if len(added) == 0 && len(removed) == 0 {
		return
	}

	for _, pos := range added {
		w.tickets.AddTicket(pos, PlayerTicketLevel)
		p.QueueChunkSend(pos)
	}
	for _, pos := range removed {
		w.tickets.RemoveTicket(pos, PlayerTicketLevel)
		p.CancelPendingChunk(pos)
	}

	w.areas.ViewChanged(p.EntityID, added, removed)
	toSpawn, toDespawn := w.entities.ViewChanged(p.EntityID, added, removed)
	for _, te := range toSpawn {
		if e, ok := te.(*entity.Entity); ok {
			p.Connection.SendPacket(spawnPacketFor(e))
		}
	}
	for _, te := range toDespawn {
		p.Connection.SendPacket(DespawnEntityPacket{EntityID: te.EntityID()})
	}

	w.mu.Lock()
	sess.lastView = current
	w.mu.Unlock()
}

func (w *World) sendPendingChunks(p *player.Player) {
	pending := p.DrainPendingChunks(player.DefaultChunksPerTick)
	for _, pos := range pending {
		h := w.chunkMap.Holder(pos)
		if h == nil {
			continue
		}
		c, ready := h.TryChunk(chunk.Full)
		if !ready {
			p.QueueChunkSend(pos)
			continue
		}
		p.Connection.SendPacket(ChunkDataPacket{Pos: pos, Chunk: c})
	}
}

func spawnPacketFor(e *entity.Entity) SpawnEntityPacket {
	pos := e.Vec3Position()
	return SpawnEntityPacket{
		EntityID: e.EntityID(),
		TypeKey:  e.Type().Key,
		Pos:      [3]float64{pos.X(), pos.Y(), pos.Z()},
	}
}

// AddEntity registers a world entity at pos, both in the owning chunk (for
// persistence, via the region.SaveableEntity adapter) and in the entity
// tracker (for client-visible spawn/despawn streaming).
func (w *World) AddEntity(e *entity.Entity, pos chunk.ChunkPos) {
	if h := w.chunkMap.Holder(pos); h != nil {
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			c.AddEntity(entitySaveAdapter{e})
		})
	}
	w.entities.Add(e, pos)
}

// RemoveEntity removes a world entity from both the owning chunk and the
// entity tracker, returning the ids of every player it was visible to so
// the caller can send a final despawn.
func (w *World) RemoveEntity(id int32, pos chunk.ChunkPos) []int32 {
	if h := w.chunkMap.Holder(pos); h != nil {
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			c.RemoveEntity(id)
		})
	}
	return w.entities.Remove(id)
}

// MoveEntity updates an entity's chunk registration after it crosses a
// chunk boundary, keeping both the chunk's own entity list and the entity
// tracker's chunk index consistent.
func (w *World) MoveEntity(e *entity.Entity, oldPos, newPos chunk.ChunkPos) {
	if oldPos == newPos {
		return
	}
	if h := w.chunkMap.Holder(oldPos); h != nil {
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			c.RemoveEntity(e.EntityID())
		})
	}
	if h := w.chunkMap.Holder(newPos); h != nil {
		h.WithChunk(chunk.Full, func(c *chunk.Chunk) {
			c.AddEntity(entitySaveAdapter{e})
		})
	}
	w.entities.Move(e.EntityID(), oldPos, newPos)
}
