package pump

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tunframe/internal/observability"
	"github.com/danmuck/tunframe/internal/protocol"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Receiver reads one connection into a PacketDeframer and hands completed
// packets to a channel in completion order.
type Receiver struct {
	cfg      Config
	src      io.Reader
	deframer *frame.PacketDeframer
	stats    *counters
}

func NewReceiver(cfg Config, src io.Reader) *Receiver {
	cfg = cfg.normalized()
	d := frame.NewPacketDeframer()
	d.SetLimits(cfg.Limits)
	return &Receiver{cfg: cfg, src: src, deframer: d, stats: &counters{}}
}

// Run reads until EOF, a read error or ctx is done. Reading pauses while the
// deframer is saturated and packets are waiting to be delivered.
func (r *Receiver) Run(ctx context.Context, out chan<- frame.Packet) error {
	buf := make([]byte, r.cfg.ReadSize)
	paused := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.saturated() {
			if !paused {
				paused = true
				r.stats.pauses.Add(1)
				observability.RecordSaturation(r.cfg.Name)
				log.Debug().
					Str("link", r.cfg.Name).
					Int("ready", r.deframer.ReadyCount()).
					Int("buffered", r.deframer.BufferedBytes()).
					Msg("receiver_paused")
			}
			if err := r.deliver(ctx, out); err != nil {
				return err
			}
			continue
		}
		paused = false

		n, readErr := r.src.Read(buf)
		if n > 0 {
			before := r.deframer.ReadyCount()
			r.deframer.Append(buf[:n])
			completed := r.deframer.ReadyCount() - before
			r.stats.bytesIn.Add(uint64(n))
			r.stats.framesIn.Add(uint64(completed))
			observability.RecordInbound(r.cfg.Name, n, completed)
		}
		if err := r.deliver(ctx, out); err != nil {
			return err
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return r.finish(ctx, out)
			}
			return fmt.Errorf("pump %s read: %w", r.cfg.Name, readErr)
		}
	}
}

// saturated reports whether reads should pause. Unlimited configs never
// pause.
func (r *Receiver) saturated() bool {
	if r.cfg.Limits.Unlimited() {
		return false
	}
	return r.deframer.Saturated() && r.deframer.ReadyCount() > 0
}

// deliver sends at most one batch of ready packets.
func (r *Receiver) deliver(ctx context.Context, out chan<- frame.Packet) error {
	defer r.publishReady()
	for _, p := range r.deframer.Drain(r.cfg.BatchSize) {
		select {
		case out <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Receiver) finish(ctx context.Context, out chan<- frame.Packet) error {
	for r.deframer.ReadyCount() > 0 {
		if err := r.deliver(ctx, out); err != nil {
			return err
		}
	}
	if s := r.deframer.State(); s.Phase != frame.PhaseIdle {
		log.Warn().
			Str("link", r.cfg.Name).
			Str("phase", s.Phase.String()).
			Int("header_buffered", s.HeaderBuffered).
			Int("payload_buffered", s.PayloadBuffered).
			Msg("receiver_truncated")
		return fmt.Errorf("pump %s: %w (%s)", r.cfg.Name, protocol.ErrTruncatedStream, s.Phase)
	}
	log.Debug().Str("link", r.cfg.Name).Msg("receiver_eof")
	return nil
}

func (r *Receiver) publishReady() {
	n := r.deframer.ReadyCount()
	r.stats.ready.Store(int64(n))
	observability.SetReadyFrames(r.cfg.Name, n)
}

func (r *Receiver) Stats() Stats {
	return r.stats.snapshot(r.cfg.Name)
}
