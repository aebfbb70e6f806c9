// Package reorder restores sequence order for packets that arrive over
// independent connections. It sits above the deframers, which only ever
// emit packets in completion order.
package reorder

import "github.com/danmuck/tunframe/internal/protocol/frame"

// Buffer holds out-of-order packets until the expected sequence arrives.
// It is not safe for concurrent use.
type Buffer struct {
	next    uint32
	pending map[uint32][]byte
	bytes   int
}

func New(first uint32) *Buffer {
	return &Buffer{next: first, pending: make(map[uint32][]byte)}
}

// Push stores p. It returns false for duplicates and packets already released.
func (b *Buffer) Push(p frame.Packet) bool {
	if frame.SeqLess(p.Sequence, b.next) {
		return false
	}
	if _, dup := b.pending[p.Sequence]; dup {
		return false
	}
	b.pending[p.Sequence] = p.Payload
	b.bytes += len(p.Payload)
	return true
}

// Pop releases the consecutive run starting at the expected sequence.
func (b *Buffer) Pop() []frame.Packet {
	var out []frame.Packet
	for {
		payload, ok := b.pending[b.next]
		if !ok {
			return out
		}
		delete(b.pending, b.next)
		b.bytes -= len(payload)
		out = append(out, frame.Packet{Sequence: b.next, Payload: payload})
		b.next++
	}
}

// Next is the sequence number Pop is waiting for.
func (b *Buffer) Next() uint32 {
	return b.next
}

func (b *Buffer) Pending() int {
	return len(b.pending)
}

func (b *Buffer) PendingBytes() int {
	return b.bytes
}
