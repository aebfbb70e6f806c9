package frame

// PacketDeframer turns a raw byte stream into sequence-tagged packets.
//
// Packets become ready in the order their last byte arrived. Sequence numbers
// are carried but never used for ordering. A PacketDeframer is not safe for
// concurrent use.
type PacketDeframer struct {
	m          machine
	ready      []Packet
	readyBytes int
	limits     Limits
}

func NewPacketDeframer() *PacketDeframer {
	d := &PacketDeframer{}
	d.m = newMachine(PacketHeaderLen, decodePacketFields, d.push)
	return d
}

// Append consumes raw stream bytes. The caller keeps ownership of raw.
func (d *PacketDeframer) Append(raw []byte) {
	d.m.feed(raw)
}

func (d *PacketDeframer) push(seq uint32, payload []byte) {
	d.ready = append(d.ready, Packet{Sequence: seq, Payload: payload})
	d.readyBytes += len(payload)
}

// FirstReadySequence reports the sequence of the oldest undrained packet.
func (d *PacketDeframer) FirstReadySequence() (uint32, bool) {
	if len(d.ready) == 0 {
		return 0, false
	}
	return d.ready[0].Sequence, true
}

func (d *PacketDeframer) ReadyCount() int {
	return len(d.ready)
}

// Drain removes and returns up to n of the oldest ready packets.
func (d *PacketDeframer) Drain(n int) []Packet {
	if n <= 0 || len(d.ready) == 0 {
		return nil
	}
	if n > len(d.ready) {
		n = len(d.ready)
	}
	out := make([]Packet, n)
	copy(out, d.ready[:n])
	clear(d.ready[:n])
	d.ready = d.ready[n:]
	if len(d.ready) == 0 {
		d.ready = nil
	}
	for _, p := range out {
		d.readyBytes -= len(p.Payload)
	}
	return out
}

func (d *PacketDeframer) DrainAll() []Packet {
	return d.Drain(len(d.ready))
}

func (d *PacketDeframer) State() ContinuationState {
	return d.m.state()
}

// BufferedBytes counts ready payload bytes plus bytes of the pending frame.
func (d *PacketDeframer) BufferedBytes() int {
	return d.readyBytes + d.m.pendingBytes()
}

func (d *PacketDeframer) SetLimits(l Limits) {
	d.limits = l
}

// Saturated reports whether the configured limits are reached.
func (d *PacketDeframer) Saturated() bool {
	return d.limits.exceeded(len(d.ready), d.BufferedBytes())
}
