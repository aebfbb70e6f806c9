package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	PacketHeaderLen = 6
	ChunkHeaderLen  = 2
	MaxPayloadLen   = 0xFFFF
)

var (
	ErrShortHeader      = errors.New("frame: short header")
	ErrInvalidHeaderLen = errors.New("frame: invalid header length")
	ErrPayloadTooLarge  = errors.New("frame: payload too large")
)

// PacketHeader is the fixed packet wire header.
type PacketHeader struct {
	Length   uint16
	Sequence uint32
}

// Packet is one sequence-tagged frame.
type Packet struct {
	Sequence uint32
	Payload  []byte
}

func (p Packet) Len() uint16 {
	return uint16(len(p.Payload))
}

func EncodePacketHeader(h PacketHeader) []byte {
	buf := make([]byte, PacketHeaderLen)
	putPacketHeader(buf, h)
	return buf
}

func DecodePacketHeader(b []byte) (PacketHeader, error) {
	if len(b) != PacketHeaderLen {
		return PacketHeader{}, fmt.Errorf("%w: %d", ErrInvalidHeaderLen, len(b))
	}
	return readPacketHeader(b), nil
}

func EncodeChunkHeader(length uint16) []byte {
	buf := make([]byte, ChunkHeaderLen)
	putChunkHeader(buf, length)
	return buf
}

func DecodeChunkHeader(b []byte) (uint16, error) {
	if len(b) != ChunkHeaderLen {
		return 0, fmt.Errorf("%w: %d", ErrInvalidHeaderLen, len(b))
	}
	return readChunkHeader(b), nil
}

// readPacketHeader and readChunkHeader assume b has the exact header length.
func readPacketHeader(b []byte) PacketHeader {
	return PacketHeader{
		Length:   binary.BigEndian.Uint16(b[0:2]),
		Sequence: binary.BigEndian.Uint32(b[2:6]),
	}
}

func readChunkHeader(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

func putChunkHeader(buf []byte, length uint16) {
	binary.BigEndian.PutUint16(buf, length)
}

func putPacketHeader(buf []byte, h PacketHeader) {
	binary.BigEndian.PutUint16(buf[0:2], h.Length)
	binary.BigEndian.PutUint32(buf[2:6], h.Sequence)
}

// ReadPacket reads exactly one packet from a blocking reader.
func ReadPacket(r io.Reader) (Packet, error) {
	var hb [PacketHeaderLen]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, ErrShortHeader
		}
		return Packet{}, err
	}
	h, err := DecodePacketHeader(hb[:])
	if err != nil {
		return Packet{}, err
	}
	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) {
				return Packet{}, io.ErrUnexpectedEOF
			}
			return Packet{}, err
		}
	}
	return Packet{Sequence: h.Sequence, Payload: payload}, nil
}

func WritePacket(w io.Writer, p Packet) error {
	if len(p.Payload) > MaxPayloadLen {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, PacketHeaderLen+len(p.Payload))
	putPacketHeader(buf, PacketHeader{Length: p.Len(), Sequence: p.Sequence})
	copy(buf[PacketHeaderLen:], p.Payload)
	_, err := w.Write(buf)
	return err
}
