// Package virtual provides panels that do not need hardware: a logging
// mock, a terminal preview and a PNG snapshot directory.
package virtual

import (
	"context"
	"sync"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"epaper/pkg/canvas"
	"epaper/pkg/proto"
)

func Mock(width, height int, logger *zap.Logger) *Mocker {
	return &Mocker{l: logger, width: width, height: height, border: canvas.White}
}

// Mocker logs every HAL call and keeps the frames it was given.
type Mocker struct {
	sync.Mutex
	l      *zap.Logger
	width  int
	height int

	frames [][]byte
	border canvas.Color
	inits  int
	sleeps int
	clears int
	closed bool

	// PushErr, when set, is returned by PushFrame.
	PushErr error
}

var _ proto.Panel = (*Mocker)(nil)

func (m *Mocker) Size() (int, int) {
	return m.width, m.height
}

func (m *Mocker) Init(_ context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.inits++
	m.l.Info("init")
	return nil
}

func (m *Mocker) PushFrame(_ context.Context, frame []byte) error {
	m.Lock()
	defer m.Unlock()

	if m.PushErr != nil {
		return m.PushErr
	}
	if len(frame) != canvas.FrameSize(m.width, m.height) {
		return errors.Errorf("frame size %d, expected %d", len(frame), canvas.FrameSize(m.width, m.height))
	}

	m.frames = append(m.frames, append([]byte(nil), frame...))
	m.l.With(zap.String("size", bytesize.New(float64(len(frame))).String())).Info("push-frame")
	return nil
}

func (m *Mocker) Clear(_ context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.clears++
	m.l.Info("clear")
	return nil
}

func (m *Mocker) SetBorder(_ context.Context, c canvas.Color) error {
	m.Lock()
	defer m.Unlock()

	m.border = c
	m.l.With(zap.Stringer("color", c)).Info("set-border")
	return nil
}

func (m *Mocker) Sleep(_ context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.sleeps++
	m.l.Info("sleep")
	return nil
}

func (m *Mocker) Busy() bool {
	return false
}

func (m *Mocker) Close() error {
	m.Lock()
	defer m.Unlock()

	m.closed = true
	m.l.Info("close")
	return nil
}

func (m *Mocker) Frames() [][]byte {
	m.Lock()
	defer m.Unlock()
	return m.frames
}

// Last returns the most recent frame, or nil.
func (m *Mocker) Last() []byte {
	m.Lock()
	defer m.Unlock()

	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

func (m *Mocker) Border() canvas.Color {
	m.Lock()
	defer m.Unlock()
	return m.border
}

func (m *Mocker) Inits() int {
	m.Lock()
	defer m.Unlock()
	return m.inits
}

func (m *Mocker) Sleeps() int {
	m.Lock()
	defer m.Unlock()
	return m.sleeps
}

func (m *Mocker) Clears() int {
	m.Lock()
	defer m.Unlock()
	return m.clears
}

func (m *Mocker) Closed() bool {
	m.Lock()
	defer m.Unlock()
	return m.closed
}
