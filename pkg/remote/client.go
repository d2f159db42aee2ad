package remote

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"epaper/pkg/proto"
)

const (
	DefaultChunkSize = 300
	DefaultDrain     = 50 * time.Millisecond
)

var (
	ErrExecution    = errors.New("execution error")
	ErrSyntax       = errors.New("syntax error")
	ErrOverrun      = errors.New("server buffer overrun")
	ErrUnknownReply = errors.New("unknown reply")
	ErrIncomplete   = errors.New("server wants more but the instruction is exhausted")
)

type ClientOption func(c *Client)

func WithChunkSize(n int) ClientOption {
	return func(c *Client) {
		c.chunk = n
	}
}

func WithDrain(d time.Duration) ClientOption {
	return func(c *Client) {
		c.drain = d
	}
}

// WithProgress is called after every chunk is written.
func WithProgress(fn func(sent, total int)) ClientOption {
	return func(c *Client) {
		c.progress = fn
	}
}

func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(conn proto.Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:   conn,
		chunk:  DefaultChunkSize,
		drain:  DefaultDrain,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Client sends instructions to a Server and waits for the outcome.
type Client struct {
	conn     proto.Conn
	chunk    int
	drain    time.Duration
	progress func(sent, total int)
	logger   *zap.Logger
}

// Send transfers instr in chunks and blocks until the server reports how it
// went.
func (c *Client) Send(ctx context.Context, instr string) error {
	if instr == "" {
		return errors.New("empty instruction")
	}

	logger := c.logger.With(zap.Stringer("id", xid.New()))
	c.discardStale(logger)

	// Cancelling ctx unblocks the reply read. The deadline is cleared only
	// once the cancel hook can no longer run.
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = c.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer func() {
		if !stop() {
			<-fired
		}
		_ = c.conn.SetReadDeadline(time.Time{})
	}()

	chunks := lo.Chunk([]byte(instr), c.chunk)
	next, sent := 0, 0
	push := func() error {
		n, err := c.conn.Write(chunks[next])
		if err != nil {
			return errors.Wrap(err, "send chunk")
		}
		next++
		sent += n
		if c.progress != nil {
			c.progress(sent, len(instr))
		}
		logger.With(zap.Int("chunk", next), zap.Int("of", len(chunks))).Debug("chunk")
		return nil
	}

	if err := push(); err != nil {
		return err
	}

	reply := make([]byte, 64)
	for {
		n, err := c.conn.Read(reply)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "read reply")
		}
		if n == 0 {
			continue
		}

		status := ParseStatus(reply[:n])
		logger.With(zap.Stringer("status", status)).Debug("reply")

		switch status {
		case StatusOK:
			return nil
		case StatusMore:
			if next == len(chunks) {
				if _, err := io.WriteString(c.conn, TokenNew); err != nil {
					logger.With(zap.Error(err)).Warn("send-new")
				}
				return ErrIncomplete
			}
			if err := push(); err != nil {
				return err
			}
		case StatusStart:
		case StatusExecution:
			return ErrExecution
		case StatusSyntax:
			return ErrSyntax
		case StatusOverrun:
			return ErrOverrun
		default:
			return errors.Wrapf(ErrUnknownReply, "%q", reply[:n])
		}
	}
}

// discardStale drops replies left over from an earlier exchange.
func (c *Client) discardStale(logger *zap.Logger) {
	if c.drain <= 0 {
		return
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.drain)); err != nil {
		return
	}
	defer c.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, ReadSize)
	n, err := c.conn.Read(buf)
	if n > 0 {
		logger.With(zap.ByteString("stale", buf[:n])).Debug("drain")
	}
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		logger.With(zap.Error(err)).Debug("drain")
	}
}

// Shutdown asks the server to stop serving.
func (c *Client) Shutdown() error {
	_, err := io.WriteString(c.conn, TokenClose)
	return errors.Wrap(err, "send close")
}

func (c *Client) Close() error {
	return c.conn.Close()
}
