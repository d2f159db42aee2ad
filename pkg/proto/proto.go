// Package proto holds the boundary between the renderer and the outside
// world: the panel HAL and the byte channels a link runs over.
package proto

import (
	"context"
	"io"
	"time"

	"epaper/pkg/canvas"
)

// Panel is a display that accepts serialized frames.
type Panel interface {
	Size() (width, height int)

	Init(ctx context.Context) error
	PushFrame(ctx context.Context, frame []byte) error
	Clear(ctx context.Context) error
	SetBorder(ctx context.Context, c canvas.Color) error
	Sleep(ctx context.Context) error

	Busy() bool
	Close() error
}

// Conn is one endpoint of a duplex link: it reads what the peer writes and
// writes what the peer reads.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}
