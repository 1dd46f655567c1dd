// Package player implements the player data model: identity, connection
// boundary, live transform, chunk-streaming bookkeeping, and the persisted
// save-file snapshot (§4.7, §6.2, §6.5).
package player

// Packet is an opaque domain object the core hands to the protocol layer
// for encoding; the core never interprets its bytes (§6.2: "packet
// encoding... are the responsibility of the protocol layer").
type Packet interface{}

// Bundle collects packets that must reach the client atomically in a single
// tick (e.g. an entity spawn alongside its initial synced data).
type Bundle interface {
	Add(p Packet)
}

// Connection is the wire-protocol boundary the core sends packets through
// and receives disconnect requests on (§6.2). The concrete implementation
// lives in the networking layer, out of this module's scope; tests and
// world wiring supply a fake.
type Connection interface {
	SendPacket(p Packet)
	SendBundle(fn func(b Bundle))
	Disconnect(reason string)
}
