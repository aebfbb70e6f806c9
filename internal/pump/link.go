package pump

import (
	"context"
	"io"

	"github.com/danmuck/tunframe/internal/protocol/frame"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Link runs both directions of one physical connection.
type Link struct {
	cfg  Config
	conn io.ReadWriter
	rx   *Receiver
	tx   *Sender
}

func NewLink(cfg Config, conn io.ReadWriter) *Link {
	cfg = cfg.normalized()
	return &Link{
		cfg:  cfg,
		conn: conn,
		rx:   NewReceiver(cfg, conn),
		tx:   NewSender(cfg, conn),
	}
}

// Run pumps in to the connection and the connection to out until both
// directions finish, one fails, or ctx is done. If conn is an io.Closer it is
// closed when Run returns, which also unblocks a pending read. A closed in
// channel leaves the link receive-only.
func (l *Link) Run(ctx context.Context, in <-chan frame.Packet, out chan<- frame.Packet) error {
	g, gctx := errgroup.WithContext(ctx)
	if c, ok := l.conn.(io.Closer); ok {
		stop := context.AfterFunc(gctx, func() {
			_ = c.Close()
		})
		defer stop()
	}
	g.Go(func() error {
		return l.rx.Run(gctx, out)
	})
	g.Go(func() error {
		return l.tx.Run(gctx, in)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	ev := log.Debug()
	if err != nil && ctx.Err() == nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("link", l.cfg.Name).Msg("link_stopped")
	return err
}

// Stats merges both directions.
func (l *Link) Stats() Stats {
	st := l.rx.Stats()
	out := l.tx.Stats()
	st.BytesOut = out.BytesOut
	st.FramesOut = out.FramesOut
	return st
}
