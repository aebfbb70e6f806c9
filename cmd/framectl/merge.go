package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tunframe/internal/config"
	"github.com/danmuck/tunframe/internal/protocol"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/danmuck/tunframe/internal/protocol/reorder"
	"github.com/danmuck/tunframe/internal/pump"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type mergeOptions struct {
	raw       bool
	adminAddr string
}

func newMergeCmd(root *rootOptions) *cobra.Command {
	opts := &mergeOptions{}
	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Decode several packet streams and print their packets in sequence order",
		Long: `Every file is read by its own link. Packets from all links are released
in sequence order starting at first_sequence, so streams written by split
come back as the original input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			if cfg.Mode != config.ModePacket {
				return fmt.Errorf("merge needs packet mode, got %q", cfg.Mode)
			}
			if opts.adminAddr != "" {
				cfg.AdminAddr = opts.adminAddr
			}
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()
			return mergeStreams(cmd.Context(), cfg, args, out, opts.raw)
		},
	}
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write payload bytes only")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "serve /health, /links and /metrics while merging")
	return cmd
}

// openLinks opens one receive-only link per path.
func openLinks(cfg config.Config, paths []string) ([]*pump.Link, error) {
	links := make([]*pump.Link, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, fmt.Errorf("merge input: %w", err)
		}
		files = append(files, f)
		pc := cfg.PumpConfig()
		pc.Name = fmt.Sprintf("%s-%d", cfg.Name, i)
		links = append(links, pump.NewLink(pc, f))
	}
	return links, nil
}

func mergeStreams(ctx context.Context, cfg config.Config, paths []string, out io.Writer, raw bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	links, err := openLinks(cfg, paths)
	if err != nil {
		return err
	}
	startAdmin(ctx, cfg, func() []pump.Stats {
		stats := make([]pump.Stats, len(links))
		for i, l := range links {
			stats[i] = l.Stats()
		}
		return stats
	})

	// Nothing is sent back over an input file.
	idle := make(chan frame.Packet)
	close(idle)

	packets := make(chan frame.Packet, cfg.BatchSize*len(links))
	g, gctx := errgroup.WithContext(ctx)
	for _, l := range links {
		l := l // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		g.Go(func() error {
			return l.Run(gctx, idle, packets)
		})
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		close(packets)
	}()

	window := reorder.New(cfg.FirstSequence)
	released, dropped := 0, 0
	var writeErr error
	for p := range packets {
		if writeErr != nil {
			continue
		}
		if !window.Push(p) {
			dropped++
			log.Warn().Uint32("seq", p.Sequence).Uint32("next", window.Next()).Msg("merge_dropped")
			continue
		}
		for _, ready := range window.Pop() {
			if writeErr = writePacket(out, ready, raw); writeErr != nil {
				cancel()
				break
			}
			released++
		}
	}
	err = <-errCh
	if writeErr != nil {
		return fmt.Errorf("merge output: %w", writeErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if window.Pending() > 0 {
		return fmt.Errorf("merge: %w: waiting for seq=%d with %d packets held", protocol.ErrSequenceGap, window.Next(), window.Pending())
	}
	log.Info().
		Int("links", len(links)).
		Int("released", released).
		Int("dropped", dropped).
		Msg("merge_complete")
	return nil
}
