package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/tunframe/internal/config"
	"github.com/danmuck/tunframe/internal/observability"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/danmuck/tunframe/internal/pump"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type decodeOptions struct {
	raw       bool
	adminAddr string
}

func newDecodeCmd(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a framed stream from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			if opts.adminAddr != "" {
				cfg.AdminAddr = opts.adminAddr
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()
			if cfg.Mode == config.ModeChunk {
				return decodeChunks(cmd.Context(), cfg, in, out)
			}
			return decodePackets(cmd.Context(), cfg, in, out, opts.raw)
		},
	}
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write payload bytes only")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "serve /health, /links and /metrics while decoding")
	return cmd
}

func decodePackets(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, raw bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rx := pump.NewReceiver(cfg.PumpConfig(), in)
	startAdmin(ctx, cfg, func() []pump.Stats {
		return []pump.Stats{rx.Stats()}
	})

	packets := make(chan frame.Packet, cfg.BatchSize)
	errCh := make(chan error, 1)
	go func() {
		errCh <- rx.Run(ctx, packets)
		close(packets)
	}()

	var writeErr error
	for p := range packets {
		if writeErr != nil {
			continue
		}
		writeErr = writePacket(out, p, raw)
		if writeErr != nil {
			cancel()
		}
	}
	err := <-errCh
	if writeErr != nil {
		return fmt.Errorf("decode output: %w", writeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	st := rx.Stats()
	log.Info().
		Str("link", st.Name).
		Uint64("frames", st.FramesIn).
		Uint64("bytes", st.BytesIn).
		Msg("decode_complete")
	return nil
}

// writePacket prints one packet, or only its payload when raw is set.
func writePacket(out io.Writer, p frame.Packet, raw bool) error {
	if raw {
		_, err := out.Write(p.Payload)
		return err
	}
	_, err := fmt.Fprintf(out, "seq=%d len=%d payload=%q\n", p.Sequence, p.Len(), p.Payload)
	return err
}

func decodeChunks(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rx := pump.NewChunkReceiver(cfg.PumpConfig(), in, out)
	startAdmin(ctx, cfg, func() []pump.Stats {
		return []pump.Stats{rx.Stats()}
	})
	if err := rx.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	st := rx.Stats()
	log.Info().
		Str("link", st.Name).
		Uint64("chunks", st.FramesIn).
		Uint64("bytes", st.BytesOut).
		Uint64("pauses", st.Pauses).
		Msg("decode_complete")
	return nil
}

// startAdmin serves the admin routes until ctx is done. It does nothing
// without an admin address.
func startAdmin(ctx context.Context, cfg config.Config, stats func() []pump.Stats) {
	if cfg.AdminAddr == "" {
		return
	}
	admin := observability.NewAdmin(cfg.Name, cfg.AdminAddr, cfg.CorsOrigins, func() any {
		return stats()
	})
	go func() {
		if err := admin.Serve(ctx); err != nil {
			log.Error().Err(err).Str("addr", cfg.AdminAddr).Msg("admin_failed")
		}
	}()
}
