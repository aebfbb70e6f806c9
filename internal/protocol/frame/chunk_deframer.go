package frame

// ChunkDeframer turns a length-prefixed chunk stream back into plain bytes.
// It is not safe for concurrent use.
type ChunkDeframer struct {
	m          machine
	ready      [][]byte
	readyBytes int
	limits     Limits
}

func NewChunkDeframer() *ChunkDeframer {
	d := &ChunkDeframer{}
	d.m = newMachine(ChunkHeaderLen, decodeChunkFields, d.push)
	return d
}

func (d *ChunkDeframer) Append(raw []byte) {
	d.m.feed(raw)
}

func (d *ChunkDeframer) push(_ uint32, payload []byte) {
	if len(payload) == 0 {
		return
	}
	d.ready = append(d.ready, payload)
	d.readyBytes += len(payload)
}

// ReadySize is the number of payload bytes available to Read.
func (d *ChunkDeframer) ReadySize() int {
	return d.readyBytes
}

// ReadyChunks is the number of held chunks, counting a partly read one.
func (d *ChunkDeframer) ReadyChunks() int {
	return len(d.ready)
}

// Read drains exactly size ready bytes when that many are available, and
// everything otherwise. A negative size drains everything.
func (d *ChunkDeframer) Read(size int) []byte {
	if size == 0 || d.readyBytes == 0 {
		return []byte{}
	}
	if size < 0 || size > d.readyBytes {
		size = d.readyBytes
	}
	out := make([]byte, 0, size)
	for len(out) < size {
		head := d.ready[0]
		need := size - len(out)
		if len(head) > need {
			out = append(out, head[:need]...)
			d.ready[0] = head[need:]
			break
		}
		out = append(out, head...)
		d.ready[0] = nil
		d.ready = d.ready[1:]
	}
	if len(d.ready) == 0 {
		d.ready = nil
	}
	d.readyBytes -= size
	return out
}

func (d *ChunkDeframer) State() ContinuationState {
	return d.m.state()
}

func (d *ChunkDeframer) BufferedBytes() int {
	return d.readyBytes + d.m.pendingBytes()
}

func (d *ChunkDeframer) SetLimits(l Limits) {
	d.limits = l
}

// Saturated treats every held chunk as a frame when checking MaxReadyFrames.
func (d *ChunkDeframer) Saturated() bool {
	return d.limits.exceeded(len(d.ready), d.BufferedBytes())
}
