package pump

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/tunframe/internal/protocol"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/danmuck/tunframe/internal/testutil/testlog"
)

// trickleReader returns at most n bytes per Read.
type trickleReader struct {
	r io.Reader
	n int
}

func (t *trickleReader) Read(p []byte) (int, error) {
	if len(p) > t.n {
		p = p[:t.n]
	}
	return t.r.Read(p)
}

func encodeAll(t *testing.T, packets []frame.Packet) []byte {
	t.Helper()
	f := frame.NewPacketFramer()
	for _, p := range packets {
		if err := f.AppendFrame(p.Sequence, p.Payload); err != nil {
			t.Fatalf("append frame: %v", err)
		}
	}
	return f.ReadStreamBytes(-1)
}

func testPackets(n int) []frame.Packet {
	out := make([]frame.Packet, n)
	for i := range out {
		out[i] = frame.Packet{Sequence: uint32(i + 2), Payload: bytes.Repeat([]byte{byte(i)}, i%17)}
	}
	return out
}

func collect(ch <-chan frame.Packet) []frame.Packet {
	var out []frame.Packet
	for p := range ch {
		out = append(out, p)
	}
	return out
}

func assertSame(t *testing.T, got, want []frame.Packet) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("packet count: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i].Sequence != want[i].Sequence || !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Fatalf("packet[%d] mismatch: got=%d want=%d", i, got[i].Sequence, want[i].Sequence)
		}
	}
}

func TestReceiverTrickleDelivery(t *testing.T) {
	testlog.Start(t)
	want := testPackets(40)
	src := &trickleReader{r: bytes.NewReader(encodeAll(t, want)), n: 3}
	rx := NewReceiver(Config{Name: "rx-trickle", ReadSize: 64, BatchSize: 4}, src)

	out := make(chan frame.Packet, len(want))
	if err := rx.Run(context.Background(), out); err != nil {
		t.Fatalf("receiver run: %v", err)
	}
	close(out)
	assertSame(t, collect(out), want)

	st := rx.Stats()
	if st.FramesIn != uint64(len(want)) || st.ReadyFrames != 0 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestReceiverTruncatedStream(t *testing.T) {
	testlog.Start(t)
	wire := encodeAll(t, testPackets(3))
	rx := NewReceiver(Config{Name: "rx-truncated"}, bytes.NewReader(wire[:len(wire)-2]))
	out := make(chan frame.Packet, 8)
	err := rx.Run(context.Background(), out)
	if !errors.Is(err, protocol.ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("complete packets before truncation: got=%d want=2", len(out))
	}
}

func TestReceiverPausesWhenSaturated(t *testing.T) {
	testlog.Start(t)
	want := testPackets(20)
	rx := NewReceiver(Config{
		Name:      "rx-saturated",
		ReadSize:  4096,
		BatchSize: 1,
		Limits:    frame.Limits{MaxReadyFrames: 4},
	}, bytes.NewReader(encodeAll(t, want)))

	out := make(chan frame.Packet)
	errCh := make(chan error, 1)
	go func() {
		errCh <- rx.Run(context.Background(), out)
		close(out)
	}()
	got := collect(out)
	if err := <-errCh; err != nil {
		t.Fatalf("receiver run: %v", err)
	}
	assertSame(t, got, want)
	if rx.Stats().Pauses == 0 {
		t.Fatalf("expected at least one saturation pause")
	}
}

func TestReceiverStopsOnContext(t *testing.T) {
	testlog.Start(t)
	rx := NewReceiver(Config{Name: "rx-ctx"}, bytes.NewReader(encodeAll(t, testPackets(5))))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rx.Run(ctx, make(chan frame.Packet)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSenderWritesFramedStream(t *testing.T) {
	testlog.Start(t)
	want := testPackets(30)
	var sink bytes.Buffer
	tx := NewSender(Config{Name: "tx-buffer", WriteSize: 5, BatchSize: 8}, &sink)

	in := make(chan frame.Packet, len(want))
	for _, p := range want {
		in <- p
	}
	close(in)
	if err := tx.Run(context.Background(), in); err != nil {
		t.Fatalf("sender run: %v", err)
	}
	if !bytes.Equal(sink.Bytes(), encodeAll(t, want)) {
		t.Fatalf("sender stream mismatch")
	}
	if st := tx.Stats(); st.FramesOut != uint64(len(want)) || st.BytesOut != uint64(sink.Len()) {
		t.Fatalf("stats: %+v", st)
	}
}

func TestSenderRejectsOversizedPacket(t *testing.T) {
	testlog.Start(t)
	tx := NewSender(Config{Name: "tx-oversized"}, io.Discard)
	in := make(chan frame.Packet, 1)
	in <- frame.Packet{Sequence: 1, Payload: make([]byte, frame.MaxPayloadLen+1)}
	close(in)
	if err := tx.Run(context.Background(), in); !errors.Is(err, frame.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestLinkOverPipe(t *testing.T) {
	testlog.Start(t)
	left, right := net.Pipe()
	cfg := Config{ReadSize: 7, WriteSize: 11, BatchSize: 3}
	cfg.Name = "link-left"
	a := NewLink(cfg, left)
	cfg.Name = "link-right"
	b := NewLink(cfg, right)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aIn, aOut := make(chan frame.Packet), make(chan frame.Packet, 64)
	bIn, bOut := make(chan frame.Packet), make(chan frame.Packet, 64)
	aErr, bErr := make(chan error, 1), make(chan error, 1)
	go func() { aErr <- a.Run(ctx, aIn, aOut) }()
	go func() { bErr <- b.Run(ctx, bIn, bOut) }()

	want := testPackets(25)
	for _, p := range want {
		aIn <- p
	}
	for i := range want {
		select {
		case p := <-bOut:
			if p.Sequence != want[i].Sequence || !bytes.Equal(p.Payload, want[i].Payload) {
				t.Fatalf("packet[%d] mismatch over link", i)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for packet %d", i)
		}
	}

	reply := frame.Packet{Sequence: 99, Payload: []byte("pong")}
	bIn <- reply
	select {
	case p := <-aOut:
		if p.Sequence != 99 || string(p.Payload) != "pong" {
			t.Fatalf("reply mismatch: %+v", p)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for reply")
	}

	cancel()
	if err := <-aErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("left link: expected context.Canceled, got %v", err)
	}
	if err := <-bErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("right link: expected context.Canceled, got %v", err)
	}
	if st := a.Stats(); st.FramesOut != uint64(len(want)) || st.FramesIn != 1 {
		t.Fatalf("left stats: %+v", st)
	}
}

func TestReceiverUnlimitedNeverPauses(t *testing.T) {
	testlog.Start(t)
	want := testPackets(50)
	rx := NewReceiver(Config{Name: "rx-unlimited", ReadSize: 4096, BatchSize: 1}, bytes.NewReader(encodeAll(t, want)))
	out := make(chan frame.Packet, len(want))
	if err := rx.Run(context.Background(), out); err != nil {
		t.Fatalf("receiver run: %v", err)
	}
	close(out)
	assertSame(t, collect(out), want)
	if p := rx.Stats().Pauses; p != 0 {
		t.Fatalf("unlimited receiver paused %d times", p)
	}
}

func TestLinkReceiveOnly(t *testing.T) {
	testlog.Start(t)
	want := testPackets(12)
	conn := struct {
		io.Reader
		io.Writer
	}{bytes.NewReader(encodeAll(t, want)), io.Discard}
	l := NewLink(Config{Name: "link-rx-only", ReadSize: 9}, conn)

	idle := make(chan frame.Packet)
	close(idle)
	out := make(chan frame.Packet, len(want))
	if err := l.Run(context.Background(), idle, out); err != nil {
		t.Fatalf("link run: %v", err)
	}
	close(out)
	assertSame(t, collect(out), want)
	if st := l.Stats(); st.FramesIn != uint64(len(want)) || st.FramesOut != 0 {
		t.Fatalf("stats: %+v", st)
	}
}
