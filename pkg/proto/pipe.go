package proto

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Pipe is a link endpoint over two named pipes: one read, one written.
// Both are opened read-write so opening never blocks waiting for a peer.
type Pipe struct {
	r *os.File
	w *os.File
}

var _ Conn = (*Pipe)(nil)

func OpenPipe(readPath, writePath string) (*Pipe, error) {
	r, err := os.OpenFile(readPath, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", readPath)
	}

	w, err := os.OpenFile(writePath, os.O_RDWR, 0)
	if err != nil {
		_ = r.Close()
		return nil, errors.Wrapf(err, "open %s", writePath)
	}

	return &Pipe{r: r, w: w}, nil
}

func (p *Pipe) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *Pipe) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *Pipe) SetReadDeadline(t time.Time) error {
	return p.r.SetReadDeadline(t)
}

func (p *Pipe) Close() error {
	return multierr.Append(p.r.Close(), p.w.Close())
}

// EnsureFifo creates a named pipe at path unless something already exists
// there.
func EnsureFifo(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return errors.Wrapf(mkfifo(path, 0666), "mkfifo %s", path)
}
