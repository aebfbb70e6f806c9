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

// ChunkReceiver reads a chunk-framed connection into a ChunkDeframer and
// writes the reassembled byte stream to dst in WriteSize slices.
type ChunkReceiver struct {
	cfg      Config
	src      io.Reader
	dst      io.Writer
	deframer *frame.ChunkDeframer
	stats    *counters
}

func NewChunkReceiver(cfg Config, src io.Reader, dst io.Writer) *ChunkReceiver {
	cfg = cfg.normalized()
	d := frame.NewChunkDeframer()
	d.SetLimits(cfg.Limits)
	return &ChunkReceiver{cfg: cfg, src: src, dst: dst, deframer: d, stats: &counters{}}
}

// Run reads until EOF, a read error or ctx is done. Each read is followed by
// at most one output write; reading pauses while the deframer is saturated.
func (r *ChunkReceiver) Run(ctx context.Context) error {
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
					Int("ready", r.deframer.ReadyChunks()).
					Int("buffered", r.deframer.BufferedBytes()).
					Msg("receiver_paused")
			}
			if err := r.deliver(); err != nil {
				return err
			}
			continue
		}
		paused = false

		n, readErr := r.src.Read(buf)
		if n > 0 {
			before := r.deframer.ReadyChunks()
			r.deframer.Append(buf[:n])
			completed := r.deframer.ReadyChunks() - before
			r.stats.bytesIn.Add(uint64(n))
			r.stats.framesIn.Add(uint64(completed))
			observability.RecordInbound(r.cfg.Name, n, completed)
		}
		if err := r.deliver(); err != nil {
			return err
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return r.finish()
			}
			return fmt.Errorf("pump %s read: %w", r.cfg.Name, readErr)
		}
	}
}

func (r *ChunkReceiver) saturated() bool {
	if r.cfg.Limits.Unlimited() {
		return false
	}
	return r.deframer.Saturated() && r.deframer.ReadySize() > 0
}

// deliver writes at most WriteSize ready bytes.
func (r *ChunkReceiver) deliver() error {
	defer r.publishReady()
	out := r.deframer.Read(r.cfg.WriteSize)
	if len(out) == 0 {
		return nil
	}
	n, err := r.dst.Write(out)
	r.stats.bytesOut.Add(uint64(n))
	observability.RecordOutbound(r.cfg.Name, n, 0)
	if err != nil {
		return fmt.Errorf("pump %s write: %w", r.cfg.Name, err)
	}
	return nil
}

func (r *ChunkReceiver) finish() error {
	for r.deframer.ReadySize() > 0 {
		if err := r.deliver(); err != nil {
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

func (r *ChunkReceiver) publishReady() {
	n := r.deframer.ReadyChunks()
	r.stats.ready.Store(int64(n))
	observability.SetReadyFrames(r.cfg.Name, n)
}

func (r *ChunkReceiver) Stats() Stats {
	return r.stats.snapshot(r.cfg.Name)
}
