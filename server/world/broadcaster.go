package world

import "github.com/blockforge/core/server/chunk"

// broadcaster adapts World's player-area tracking into chunkmap.Broadcaster,
// forwarding a chunk's accumulated block changes to every player currently
// viewing it (§4.6.3, §6.3).
type broadcaster struct {
	w *World
}

func newBroadcaster(w *World) *broadcaster {
	return &broadcaster{w: w}
}

func (b *broadcaster) BroadcastBlockChanges(pos chunk.ChunkPos, sectionChanges map[int][]uint16) {
	viewers := b.w.areas.PlayersViewing(pos)
	if len(viewers) == 0 {
		return
	}
	packet := BlockChangePacket{Pos: pos, SectionChanges: sectionChanges}

	b.w.mu.Lock()
	defer b.w.mu.Unlock()
	for _, id := range viewers {
		if p, ok := b.w.players[id]; ok {
			p.Connection.SendPacket(packet)
		}
	}
}
