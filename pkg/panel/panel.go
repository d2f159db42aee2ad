// Package panel tracks the power state of a display and commits canvases
// to it.
package panel

import (
	"context"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"epaper/pkg/canvas"
	"epaper/pkg/proto"
)

type State int

const (
	Uninitialized State = iota
	Asleep
	Awake
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Asleep:
		return "asleep"
	case Awake:
		return "awake"
	}
	return "unknown"
}

type Option func(s *Session)

func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		s.interval = d
	}
}

// WithTimeout bounds every busy wait. Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(dev proto.Panel, opts ...Option) *Session {
	s := &Session{
		dev:      dev,
		border:   canvas.White,
		interval: 10 * time.Millisecond,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Session is not safe for concurrent use.
type Session struct {
	dev      proto.Panel
	state    State
	border   canvas.Color
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Device() proto.Panel {
	return s.dev
}

func (s *Session) Border() canvas.Color {
	return s.border
}

func (s *Session) setState(st State) {
	if s.state != st {
		s.logger.With(zap.Stringer("from", s.state), zap.Stringer("to", st)).Debug("panel-state")
	}
	s.state = st
}

func (s *Session) wait(ctx context.Context) error {
	return proto.WaitIdle(ctx, s.dev, s.interval, s.timeout)
}

// Wake initializes the device unless it is already awake, then re-applies
// the border color.
func (s *Session) Wake(ctx context.Context) error {
	if s.state == Awake {
		return nil
	}

	if err := s.dev.Init(ctx); err != nil {
		return errors.Wrap(err, "panel init")
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	if err := s.dev.SetBorder(ctx, s.border); err != nil {
		return errors.Wrap(err, "panel border")
	}

	s.setState(Awake)
	return nil
}

// Sleep puts an awake device into low power.
func (s *Session) Sleep(ctx context.Context) error {
	if s.state != Awake {
		return nil
	}

	if err := s.dev.Sleep(ctx); err != nil {
		return errors.Wrap(err, "panel sleep")
	}

	s.setState(Asleep)
	return nil
}

// Commit pushes the canvas to the device. It never puts the device back to
// sleep.
func (s *Session) Commit(ctx context.Context, c *canvas.Canvas) error {
	if err := s.Wake(ctx); err != nil {
		return err
	}

	start := time.Now()
	frame := c.Serialize()
	if err := s.dev.PushFrame(ctx, frame); err != nil {
		return errors.Wrap(err, "panel push")
	}
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.logger.With(
		zap.String("size", bytesize.New(float64(len(frame))).String()),
		zap.Duration("cost", time.Since(start)),
	).Info("commit")
	return nil
}

// Clear blanks the physical panel without touching any canvas.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.Wake(ctx); err != nil {
		return err
	}
	if err := s.dev.Clear(ctx); err != nil {
		return errors.Wrap(err, "panel clear")
	}
	return s.wait(ctx)
}

// SetBorder remembers the border color and applies it if the device is
// awake. It is applied on the next wake otherwise.
func (s *Session) SetBorder(ctx context.Context, c canvas.Color) error {
	s.border = c
	if s.state != Awake {
		return nil
	}
	return errors.Wrap(s.dev.SetBorder(ctx, c), "panel border")
}

// Close puts the device to sleep and releases it.
func (s *Session) Close(ctx context.Context) error {
	err := s.Sleep(ctx)
	if cerr := s.dev.Close(); err == nil {
		err = cerr
	}
	return err
}
