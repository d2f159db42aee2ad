package virtual

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"epaper/pkg/canvas"
	"epaper/pkg/proto"
)

var inks = map[canvas.Color]tcell.Color{
	canvas.White:  tcell.ColorWhite,
	canvas.Black:  tcell.ColorBlack,
	canvas.Accent: tcell.ColorRed,
}

func NewTerminal(screen tcell.Screen, width, height int, logger *zap.Logger) *Terminal {
	return &Terminal{screen: screen, width: width, height: height, l: logger}
}

// Terminal previews frames on a tcell screen. Each cell shows two stacked
// blocks of panel pixels using an upper half block.
type Terminal struct {
	screen tcell.Screen
	width  int
	height int
	l      *zap.Logger
}

var _ proto.Panel = (*Terminal)(nil)

func (t *Terminal) Size() (int, int) {
	return t.width, t.height
}

func (t *Terminal) Init(_ context.Context) error {
	return nil
}

func (t *Terminal) PushFrame(_ context.Context, frame []byte) error {
	img, err := canvas.DecodeFrame(frame, t.width, t.height)
	if err != nil {
		return err
	}

	cols, rows := t.screen.Size()
	if cols == 0 || rows == 0 {
		return nil
	}

	bw := (t.width + cols - 1) / cols
	bh := (t.height + rows*2 - 1) / (rows * 2)

	block := func(x0, y0 int) canvas.Color {
		ink := canvas.White
		for y := y0; y < y0+bh && y < t.height; y++ {
			for x := x0; x < x0+bw && x < t.width; x++ {
				switch c := canvas.Color(img.ColorIndexAt(x, y)); c {
				case canvas.Accent:
					return c
				case canvas.Black:
					ink = c
				}
			}
		}
		return ink
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x := col * bw
			top := block(x, row*2*bh)
			bottom := block(x, (row*2+1)*bh)
			style := tcell.StyleDefault.Foreground(inks[top]).Background(inks[bottom])
			t.screen.SetContent(col, row, '▀', nil, style)
		}
	}

	t.screen.Show()
	t.l.With(zap.Int("cols", cols), zap.Int("rows", rows)).Debug("preview")
	return nil
}

func (t *Terminal) Clear(ctx context.Context) error {
	return t.PushFrame(ctx, canvas.New(t.width, t.height).Serialize())
}

func (t *Terminal) SetBorder(_ context.Context, _ canvas.Color) error {
	return nil
}

func (t *Terminal) Sleep(_ context.Context) error {
	return nil
}

func (t *Terminal) Busy() bool {
	return false
}

func (t *Terminal) Close() error {
	t.screen.Fini()
	return nil
}
