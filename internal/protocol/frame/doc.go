// Package frame owns the stream framing wire contract.
//
// Ownership boundary:
// - packet framing: [length u16][sequence u32] || payload
// - chunk framing: [length u16] || payload
// - incremental deframers that accept bytes split at any offset
// - framers that serialize into a drainable byte queue
//
// All integers are big-endian. Length and sequence fields are trusted; a
// corrupted stream is framed as if it were valid. Nothing here performs I/O
// except the blocking ReadPacket/WritePacket helpers.
package frame
