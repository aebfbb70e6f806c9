package frame

import "io"

// ChunkFramer splits a plain byte stream into length-prefixed chunks of at
// most MaxPayloadLen bytes. It is not safe for concurrent use.
type ChunkFramer struct {
	out outbound
}

func NewChunkFramer() *ChunkFramer {
	return &ChunkFramer{}
}

// Write queues p as one or more chunks. It never fails.
func (f *ChunkFramer) Write(p []byte) (int, error) {
	var hdr [ChunkHeaderLen]byte
	for rest := p; len(rest) > 0; {
		n := min(len(rest), MaxPayloadLen)
		putChunkHeader(hdr[:], uint16(n))
		f.out.buf.Write(hdr[:])
		f.out.buf.Write(rest[:n])
		rest = rest[n:]
	}
	return len(p), nil
}

func (f *ChunkFramer) ReadStreamBytes(size int) []byte {
	return f.out.read(size)
}

func (f *ChunkFramer) Buffered() int {
	return f.out.buf.Len()
}

func (f *ChunkFramer) WriteTo(w io.Writer) (int64, error) {
	return f.out.writeTo(w)
}
