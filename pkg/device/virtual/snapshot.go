package virtual

import (
	"context"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epaper/pkg/bitmap"
	"epaper/pkg/canvas"
	"epaper/pkg/proto"
)

// NewSnapshot writes PNGs into dir on the local disk. The directory must
// exist.
func NewSnapshot(dir string, width, height int, logger *zap.Logger) (*Snapshot, error) {
	fs := afero.NewOsFs()
	if exists, err := afero.DirExists(fs, dir); err != nil {
		return nil, err
	} else if !exists {
		return nil, errors.Errorf("snapshot dir %q not exists", dir)
	}

	return NewSnapshotFs(afero.NewBasePathFs(fs, dir), width, height, logger), nil
}

func NewSnapshotFs(fs afero.Fs, width, height int, logger *zap.Logger) *Snapshot {
	return &Snapshot{fs: fs, width: width, height: height, l: logger}
}

// Snapshot saves every pushed frame as a PNG named by a sortable xid.
type Snapshot struct {
	fs     afero.Fs
	width  int
	height int
	l      *zap.Logger
	last   string
}

var _ proto.Panel = (*Snapshot)(nil)

func (s *Snapshot) Size() (int, int) {
	return s.width, s.height
}

func (s *Snapshot) Init(_ context.Context) error {
	return nil
}

func (s *Snapshot) PushFrame(_ context.Context, frame []byte) error {
	img, err := canvas.DecodeFrame(frame, s.width, s.height)
	if err != nil {
		return err
	}

	name := path.Join("/", xid.New().String()+".png")
	if err := bitmap.Save(s.fs, name, img); err != nil {
		return errors.Wrap(err, "save snapshot")
	}

	s.last = name
	s.l.With(zap.String("file", name)).Info("snapshot")
	return nil
}

// Last is the name of the most recent snapshot inside the snapshot fs.
func (s *Snapshot) Last() string {
	return s.last
}

func (s *Snapshot) Clear(ctx context.Context) error {
	return s.PushFrame(ctx, canvas.New(s.width, s.height).Serialize())
}

func (s *Snapshot) SetBorder(_ context.Context, _ canvas.Color) error {
	return nil
}

func (s *Snapshot) Sleep(_ context.Context) error {
	return nil
}

func (s *Snapshot) Busy() bool {
	return false
}

func (s *Snapshot) Close() error {
	return nil
}
