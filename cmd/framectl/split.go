package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/tunframe/internal/config"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/danmuck/tunframe/internal/pump"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type splitOptions struct {
	links  int
	prefix string
}

func newSplitCmd(root *rootOptions) *cobra.Command {
	opts := &splitOptions{}
	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Encode input lines round-robin across several packet streams",
		Long: `Lines are numbered the same way encode numbers them. Packet i is written
to <prefix>.<i mod links>; merge restores the input order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			if cfg.Mode != config.ModePacket {
				return fmt.Errorf("split needs packet mode, got %q", cfg.Mode)
			}
			if opts.prefix == "" {
				return fmt.Errorf("split needs --out-prefix")
			}
			if opts.links <= 0 {
				return fmt.Errorf("links must be positive, got %d", opts.links)
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			paths, err := splitStream(cmd.Context(), cfg, in, opts.prefix, opts.links)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.links, "links", 2, "number of output streams")
	cmd.Flags().StringVar(&opts.prefix, "out-prefix", "", "streams are written to <prefix>.0, <prefix>.1, ...")
	return cmd
}

func splitStream(ctx context.Context, cfg config.Config, in io.Reader, prefix string, links int) (paths []string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	files := make([]*os.File, 0, links)
	defer func() {
		for _, f := range files {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("split output: %w", cerr)
			}
		}
	}()
	for i := 0; i < links; i++ {
		path := fmt.Sprintf("%s.%d", prefix, i)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("split output: %w", err)
		}
		files = append(files, f)
		paths = append(paths, path)
	}

	g, gctx := errgroup.WithContext(ctx)
	lanes := make([]chan frame.Packet, links)
	for i, f := range files {
		pc := cfg.PumpConfig()
		pc.Name = fmt.Sprintf("%s-%d", cfg.Name, i)
		tx := pump.NewSender(pc, f)
		lane := make(chan frame.Packet, cfg.BatchSize)
		lanes[i] = lane
		g.Go(func() error {
			return tx.Run(gctx, lane)
		})
	}

	seqs := frame.NewSequencer(cfg.FirstSequence)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	sent := 0
scan:
	for scanner.Scan() {
		select {
		case lanes[sent%links] <- parseLine(scanner.Text(), seqs):
			sent++
		case <-gctx.Done():
			break scan
		}
	}
	for _, lane := range lanes {
		close(lane)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("split input: %w", err)
	}
	log.Info().Int("links", links).Int("packets", sent).Msg("split_complete")
	return paths, nil
}
