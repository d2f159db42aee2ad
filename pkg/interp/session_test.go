package interp

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/bmp"

	"epaper/pkg/canvas"
	"epaper/pkg/device/virtual"
	"epaper/pkg/panel"
)

func newSession(t *testing.T, w, h int, opts ...Option) (*Session, *virtual.Mocker) {
	logger := zaptest.NewLogger(t)
	dev := virtual.Mock(w, h, logger)
	p := panel.New(dev, panel.WithPollInterval(time.Millisecond), panel.WithLogger(logger))

	opts = append([]Option{WithLogger(logger), WithFs(afero.NewMemMapFs())}, opts...)
	s, err := New(canvas.New(w, h), p, opts...)
	require.NoError(t, err)
	return s, dev
}

func TestExecuteText(t *testing.T) {
	s, dev := newSession(t, 384, 640)
	require.NoError(t, s.Execute(context.Background(), "<p=10:10,d=B,t='Hi'>"))

	c := s.Canvas()
	cur := s.Cursor()
	face := cur.Face
	width := face.Advance('H') + face.Advance('i')

	assert.Equal(t, canvas.Black, cur.Foreground)
	assert.Equal(t, 10+width, cur.X)
	assert.Equal(t, 10, cur.Y)

	assert.Positive(t, c.Primary().Count())
	assert.Zero(t, c.Accent().Count())
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if c.At(x, y) == canvas.Black {
				assert.GreaterOrEqual(t, x, 10)
				assert.Less(t, x, 10+width)
				assert.GreaterOrEqual(t, y, 10)
				assert.Less(t, y, 10+face.Height())
			}
		}
	}

	require.Len(t, dev.Frames(), 1)
	assert.Equal(t, c.Serialize(), dev.Last())
}

func TestExecuteAccentDot(t *testing.T) {
	s, _ := newSession(t, 32, 32)
	require.NoError(t, s.Execute(context.Background(), "<p=5:5,d=C,P=3>"))

	c := s.Canvas()
	assert.Equal(t, 9, c.Accent().Count())
	assert.Zero(t, c.Primary().Count())
	assert.Equal(t, canvas.Accent, c.At(5, 5))
	assert.Equal(t, 8, s.Cursor().X)
}

func TestExecuteSyntaxError(t *testing.T) {
	s, dev := newSession(t, 32, 32)
	err := s.Execute(context.Background(), "<p=10:,t='x'>")
	assert.Equal(t, CodeSyntax, CodeOf(err))

	assert.Zero(t, s.Cursor().X)
	assert.Zero(t, s.Cursor().Y)
	assert.Empty(t, dev.Frames())
}

func TestExecutePartialEffect(t *testing.T) {
	s, dev := newSession(t, 32, 32)
	err := s.Execute(context.Background(), "<p=3:4,P=1,d=X,P=1>")
	assert.Equal(t, CodeExecution, CodeOf(err))

	assert.Equal(t, 4, s.Cursor().X)
	assert.Equal(t, 4, s.Cursor().Y)
	assert.Equal(t, 1, s.Canvas().Primary().Count())
	assert.Empty(t, dev.Frames())
}

func TestExecuteStateOnly(t *testing.T) {
	s, dev := newSession(t, 32, 32)
	require.NoError(t, s.Execute(context.Background(), "<p=1:1,d=C,b=B,f='Font8'>"))

	cur := s.Cursor()
	assert.Equal(t, canvas.Accent, cur.Foreground)
	assert.Equal(t, canvas.Black, cur.Background)
	assert.Equal(t, "Font8", cur.Face.Name())
	assert.Empty(t, dev.Frames())
	assert.Zero(t, dev.Inits())
}

func TestExecuteLine(t *testing.T) {
	s, _ := newSession(t, 32, 32)
	require.NoError(t, s.Execute(context.Background(), "<p=2:2,l=10:2:0:1>"))

	assert.Equal(t, 10, s.Cursor().X)
	assert.Equal(t, 2, s.Cursor().Y)
	assert.Equal(t, 9, s.Canvas().Primary().Count())
}

func TestExecuteShapes(t *testing.T) {
	s, dev := newSession(t, 32, 32)
	require.NoError(t, s.Execute(context.Background(), "<p=1:1,Q=4:3:1,p=20:20,c=3:1>"))

	c := s.Canvas()
	assert.Equal(t, canvas.Black, c.At(2, 2))
	assert.Equal(t, canvas.Black, c.At(23, 20))
	assert.Equal(t, canvas.White, c.At(20, 20))
	assert.Len(t, dev.Frames(), 1)
}

func TestExecuteCursorSpecials(t *testing.T) {
	s, _ := newSession(t, 32, 32)
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, "<!=r,p=5:6,!=s,p=0:0,!=d>"))
	assert.Zero(t, s.Cursor().X)

	require.NoError(t, s.Execute(ctx, "<!=R>"))
	assert.Equal(t, 5, s.Cursor().X)
	assert.Equal(t, 6, s.Cursor().Y)
}

func TestExecuteClear(t *testing.T) {
	s, dev := newSession(t, 32, 32)
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, "<p=3:3,r=90,m=H,d=C,P=2>"))
	require.Len(t, dev.Frames(), 1)

	require.NoError(t, s.Execute(ctx, "<!=c>"))
	c := s.Canvas()
	assert.Zero(t, c.Primary().Count())
	assert.Zero(t, c.Accent().Count())
	assert.Equal(t, canvas.Rotate0, c.Rotation())
	assert.Equal(t, canvas.MirrorNone, c.Mirror())
	assert.Zero(t, s.Cursor().X)
	assert.Equal(t, canvas.Black, s.Cursor().Foreground)
	assert.Zero(t, dev.Clears())
	assert.Len(t, dev.Frames(), 1)

	require.NoError(t, s.Execute(ctx, "<!=C>"))
	assert.Equal(t, 1, dev.Clears())
}

func TestExecuteSleepWake(t *testing.T) {
	s, dev := newSession(t, 16, 16)
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, "<P=1,!=p>"))
	assert.Equal(t, panel.Asleep, s.Panel().State())
	assert.Equal(t, 1, dev.Sleeps())
	assert.Len(t, dev.Frames(), 1)

	require.NoError(t, s.Execute(ctx, "<!=i>"))
	assert.Equal(t, panel.Awake, s.Panel().State())
	assert.Equal(t, 2, dev.Inits())

	require.NoError(t, s.Execute(ctx, "<!=P>"))
	require.NoError(t, s.Execute(ctx, "<P=1>"))
	assert.Equal(t, panel.Awake, s.Panel().State())
	assert.Len(t, dev.Frames(), 2)
}

func TestExecuteBorder(t *testing.T) {
	s, dev := newSession(t, 16, 16)
	require.NoError(t, s.Execute(context.Background(), "<B=C>"))

	assert.Equal(t, canvas.Accent, s.Cursor().Border)
	assert.Equal(t, canvas.Accent, dev.Border())
	assert.Len(t, dev.Frames(), 1)
}

func TestExecuteImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Black)
	img.Set(1, 0, color.White)
	img.Set(0, 1, color.RGBA{R: 0xff, A: 0xff})
	img.Set(1, 1, color.White)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	require.NoError(t, afero.WriteFile(fs, "/pic.bmp", buf.Bytes(), 0644))

	s, _ := newSession(t, 16, 16, WithFs(fs))
	require.NoError(t, s.Execute(context.Background(), "<p=2:2,i='/pic.bmp'>"))

	c := s.Canvas()
	assert.Equal(t, canvas.Black, c.At(2, 2))
	assert.Equal(t, canvas.White, c.At(3, 2))
	assert.Equal(t, canvas.Accent, c.At(2, 3))

	err := s.Execute(context.Background(), "<i='/missing.bmp'>")
	assert.Equal(t, CodeExecution, CodeOf(err))
}

func TestExecuteNumberAndClock(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	ctx := context.Background()

	a, _ := newSession(t, 200, 40, WithClock(func() time.Time { return now }))
	b, _ := newSession(t, 200, 40)

	require.NoError(t, a.Execute(ctx, "<n=' 42'>"))
	require.NoError(t, b.Execute(ctx, "<t='42'>"))
	assert.True(t, a.Canvas().Primary().Equal(b.Canvas().Primary()))

	require.NoError(t, a.Execute(ctx, "<p=0:20,T=s>"))
	require.NoError(t, b.Execute(ctx, "<p=0:20,t='07:08:09'>"))
	assert.True(t, a.Canvas().Primary().Equal(b.Canvas().Primary()))
}

func TestFormatClock(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)

	assert.Equal(t, "07:08", formatClock(now, TimeMinutes))
	assert.Equal(t, "07:08:09", formatClock(now, TimeSeconds))
	assert.Equal(t, " 5-3-2024 ", formatClock(now, DateNumeric))
	assert.Equal(t, "Tue   5 Mar 2024 ", formatClock(now, DateWords))
}
