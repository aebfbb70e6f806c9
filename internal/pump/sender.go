package pump

import (
	"context"
	"fmt"
	"io"

	"github.com/danmuck/tunframe/internal/observability"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Sender frames packets from a channel and writes them to one connection.
type Sender struct {
	cfg    Config
	dst    io.Writer
	framer *frame.PacketFramer
	stats  *counters
}

func NewSender(cfg Config, dst io.Writer) *Sender {
	return &Sender{cfg: cfg.normalized(), dst: dst, framer: frame.NewPacketFramer(), stats: &counters{}}
}

// Run writes packets until in is closed or ctx is done. Packets already
// waiting on in are coalesced into one flush, up to BatchSize.
func (s *Sender) Run(ctx context.Context, in <-chan frame.Packet) error {
	for {
		var p frame.Packet
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok = <-in:
		}
		if !ok {
			log.Debug().Str("link", s.cfg.Name).Msg("sender_closed")
			return nil
		}
		frames := 0
		for {
			if err := s.framer.AppendFrame(p.Sequence, p.Payload); err != nil {
				return fmt.Errorf("pump %s frame seq=%d len=%d: %w", s.cfg.Name, p.Sequence, len(p.Payload), err)
			}
			frames++
			if frames >= s.cfg.BatchSize {
				break
			}
			select {
			case p, ok = <-in:
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if err := s.flush(frames); err != nil {
			return err
		}
	}
}

func (s *Sender) flush(frames int) error {
	written := 0
	for s.framer.Buffered() > 0 {
		chunk := s.framer.ReadStreamBytes(s.cfg.WriteSize)
		n, err := s.dst.Write(chunk)
		written += n
		if err != nil {
			return fmt.Errorf("pump %s write: %w", s.cfg.Name, err)
		}
	}
	s.stats.bytesOut.Add(uint64(written))
	s.stats.framesOut.Add(uint64(frames))
	observability.RecordOutbound(s.cfg.Name, written, frames)
	return nil
}

func (s *Sender) Stats() Stats {
	return s.stats.snapshot(s.cfg.Name)
}
