package frame

import (
	"bytes"
	"math/rand"
	"testing"
)

func packetBytes(t *testing.T, seq uint32, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WritePacket(&buf, Packet{Sequence: seq, Payload: payload}); err != nil {
		t.Fatalf("write packet seq=%d: %v", seq, err)
	}
	return buf.Bytes()
}

func appendFrame(t *testing.T, f *PacketFramer, seq uint32, payload []byte) {
	t.Helper()
	if err := f.AppendFrame(seq, payload); err != nil {
		t.Fatalf("append frame seq=%d: %v", seq, err)
	}
}

func randomPackets(rng *rand.Rand, n, maxLen int) []Packet {
	out := make([]Packet, n)
	for i := range out {
		payload := make([]byte, rng.Intn(maxLen+1))
		rng.Read(payload)
		out[i] = Packet{Sequence: rng.Uint32(), Payload: payload}
	}
	return out
}

// randomSplit cuts b into consecutive pieces of 0..maxPiece bytes.
func randomSplit(rng *rand.Rand, b []byte, maxPiece int) [][]byte {
	var pieces [][]byte
	for len(b) > 0 {
		n := rng.Intn(maxPiece + 1)
		if n > len(b) {
			n = len(b)
		}
		pieces = append(pieces, b[:n])
		b = b[n:]
	}
	return pieces
}

func assertPackets(t *testing.T, got, want []Packet) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("packet count mismatch: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i].Sequence != want[i].Sequence {
			t.Fatalf("packet[%d] sequence mismatch: got=%d want=%d", i, got[i].Sequence, want[i].Sequence)
		}
		if !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Fatalf("packet[%d] payload mismatch: got=%q want=%q", i, got[i].Payload, want[i].Payload)
		}
	}
}
