package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danmuck/tunframe/internal/config"
	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/danmuck/tunframe/internal/pump"
	"github.com/spf13/cobra"
)

const maxLineBytes = 4 * frame.MaxPayloadLen

func newEncodeCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode input into a framed stream on stdout",
		Long: `In packet mode every input line becomes one packet. A line of the form
"<seq>\t<payload>" sets the sequence explicitly; other lines take the next
number from first_sequence. In chunk mode the input is copied as raw bytes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			if cfg.Mode == config.ModeChunk {
				return encodeChunks(in, cmd.OutOrStdout(), cfg.ReadSize, cfg.WriteSize)
			}
			return encodePackets(cmd.Context(), cfg, in, cmd.OutOrStdout())
		},
	}
	return cmd
}

// parseLine splits an optional "<seq>\t" prefix off a line.
func parseLine(line string, seqs *frame.Sequencer) frame.Packet {
	if head, rest, ok := strings.Cut(line, "\t"); ok {
		if seq, err := strconv.ParseUint(head, 10, 32); err == nil {
			return frame.Packet{Sequence: uint32(seq), Payload: []byte(rest)}
		}
	}
	return frame.Packet{Sequence: seqs.Next(), Payload: []byte(line)}
}

func encodePackets(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tx := pump.NewSender(cfg.PumpConfig(), out)
	packets := make(chan frame.Packet, cfg.BatchSize)
	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		errCh <- tx.Run(ctx, packets)
	}()

	seqs := frame.NewSequencer(cfg.FirstSequence)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var scanErr error
	for scanner.Scan() {
		select {
		case packets <- parseLine(scanner.Text(), seqs):
		case err := <-errCh:
			return err
		}
	}
	scanErr = scanner.Err()
	close(packets)
	if err := <-errCh; err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("encode input: %w", scanErr)
	}
	return nil
}

func encodeChunks(in io.Reader, out io.Writer, readSize, writeSize int) error {
	f := frame.NewChunkFramer()
	buf := make([]byte, readSize)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("encode frame: %w", werr)
			}
			for f.Buffered() > 0 {
				if _, werr := out.Write(f.ReadStreamBytes(writeSize)); werr != nil {
					return fmt.Errorf("encode output: %w", werr)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("encode input: %w", err)
		}
	}
}
