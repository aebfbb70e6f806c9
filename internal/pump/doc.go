// Package pump moves bytes between one physical connection and the framing
// layer.
//
// Ownership boundary:
// - Receiver: transport reads -> PacketDeframer -> packet channel
// - Sender: packet channel -> PacketFramer -> transport writes
// - ChunkReceiver: transport reads -> ChunkDeframer -> byte stream writes
// - Link: one Receiver and one Sender sharing a connection
//
// Each framer and deframer is confined to the goroutine running it. Choosing
// which connection carries which packet, and reordering across connections,
// belongs to the caller.
package pump
