package frame

import "io"

// PacketFramer serializes sequence-tagged packets into a byte stream.
// It is not safe for concurrent use.
type PacketFramer struct {
	out outbound
}

func NewPacketFramer() *PacketFramer {
	return &PacketFramer{}
}

// AppendFrame queues the header and a copy of payload for output.
func (f *PacketFramer) AppendFrame(seq uint32, payload []byte) error {
	if len(payload) > MaxPayloadLen {
		return ErrPayloadTooLarge
	}
	var hdr [PacketHeaderLen]byte
	putPacketHeader(hdr[:], PacketHeader{Length: uint16(len(payload)), Sequence: seq})
	f.out.buf.Write(hdr[:])
	f.out.buf.Write(payload)
	return nil
}

// ReadStreamBytes drains up to size serialized bytes. A negative size drains
// everything buffered.
func (f *PacketFramer) ReadStreamBytes(size int) []byte {
	return f.out.read(size)
}

func (f *PacketFramer) Buffered() int {
	return f.out.buf.Len()
}

// WriteTo drains all buffered bytes into w.
func (f *PacketFramer) WriteTo(w io.Writer) (int64, error) {
	return f.out.writeTo(w)
}
