package remote

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"epaper/pkg/interp"
	"epaper/pkg/proto"
)

// ReadSize is how much the server takes from the channel per read.
const ReadSize = 512

// Executor runs one reassembled instruction.
type Executor interface {
	Execute(ctx context.Context, instr string) error
}

// Opener (re)connects the server's channel.
type Opener func(ctx context.Context) (proto.Conn, error)

type ServerOption func(s *Server)

func WithRetry(p RetryPolicy) ServerOption {
	return func(s *Server) {
		s.retry = p
	}
}

// WithIdle runs fn after each instruction, before its result is sent.
func WithIdle(fn func(ctx context.Context) error) ServerOption {
	return func(s *Server) {
		s.idle = fn
	}
}

func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(open Opener, exec Executor, opts ...ServerOption) *Server {
	s := &Server{
		open:   open,
		exec:   exec,
		retry:  DefaultRetryPolicy,
		logger: zap.NewNop(),
		buf:    make([]byte, 0, interp.MaxInstruction),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Server reassembles chunked instructions from a channel, executes them and
// replies with status tokens. Exchanges are handled one at a time.
type Server struct {
	open   Opener
	exec   Executor
	retry  RetryPolicy
	idle   func(ctx context.Context) error
	logger *zap.Logger

	mu   sync.Mutex
	conn proto.Conn
	buf  []byte
}

// errClosed ends Serve after a close request.
var errClosed = errors.New("link closed by peer")

// Serve runs until the peer sends <<CLOSE>>, ctx is cancelled or the channel
// cannot be reopened. It returns nil in the first two cases.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	defer s.disconnect()

	stop := context.AfterFunc(ctx, s.disconnect)
	defer stop()

	chunk := make([]byte, ReadSize)
	for {
		conn := s.current()
		if conn == nil {
			return nil
		}

		n, err := conn.Read(chunk)
		if err == nil && n > 0 {
			err = s.handle(ctx, conn, chunk[:n])
		}
		if err == errClosed {
			s.logger.Info("close")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			s.logger.With(zap.Error(err)).Warn("lost-connection")
			s.disconnect()
			if err := s.connect(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Server) current() proto.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Server) connect(ctx context.Context) error {
	err := s.retry.Do(ctx, s.logger, func(ctx context.Context) error {
		conn, err := s.open(ctx)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.conn = conn
		s.buf = s.buf[:0]
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "open link")
	}

	s.logger.Info("connected")
	return nil
}

func (s *Server) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.logger.With(zap.Error(err)).Debug("close-link")
	}
	s.conn = nil
}

// handle consumes one read. Returned errors are channel errors or errClosed;
// instruction failures are reported to the peer instead.
func (s *Server) handle(ctx context.Context, conn proto.Conn, data []byte) error {
	if bytes.Contains(data, []byte(TokenNew)) {
		s.logger.Debug("new")
		s.buf = s.buf[:0]
		return nil
	}
	if bytes.Contains(data, []byte(TokenClose)) {
		return errClosed
	}

	for _, c := range data {
		if len(s.buf) == interp.MaxInstruction {
			s.logger.With(zap.Int("limit", interp.MaxInstruction)).Warn("overrun")
			s.buf = s.buf[:0]
			return s.send(conn, TokenOverrun)
		}

		s.buf = append(s.buf, c)
		if c == '>' {
			return s.exchange(ctx, conn)
		}
	}

	return s.send(conn, TokenMore)
}

func (s *Server) exchange(ctx context.Context, conn proto.Conn) error {
	instr := string(s.buf)
	s.buf = s.buf[:0]

	logger := s.logger.With(zap.Stringer("id", xid.New()))
	logger.With(zap.String("size", bytesize.New(float64(len(instr))).String())).Debug("start")

	if err := s.send(conn, TokenStart); err != nil {
		return err
	}

	start := time.Now()
	err := s.exec.Execute(ctx, instr)
	code := interp.CodeOf(err)

	if s.idle != nil {
		if err := s.idle(ctx); err != nil {
			logger.With(zap.Error(err)).Warn("idle")
		}
	}

	logger = logger.With(zap.Int("code", code), zap.Duration("cost", time.Since(start)))
	if err != nil {
		logger.With(zap.Error(err)).Warn("exchange")
	} else {
		logger.Info("exchange")
	}

	return s.send(conn, lo.Ternary(code == interp.CodeOK, TokenOK, ErrorToken(code)))
}

func (s *Server) send(w io.Writer, token string) error {
	_, err := io.WriteString(w, token)
	return errors.Wrapf(err, "send %s", token)
}
