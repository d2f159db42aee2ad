package canvas

import (
	"image/color"

	"tinygo.org/x/drivers"

	"epaper/pkg/font"
)

// glyphTarget lets tinyfont rasterize into the canvas. The glyph color is
// ignored and replaced with the requested logical color.
type glyphTarget struct {
	c   *Canvas
	col Color
}

var _ drivers.Displayer = (*glyphTarget)(nil)

func (g *glyphTarget) Size() (x, y int16) {
	return int16(g.c.Width()), int16(g.c.Height())
}

func (g *glyphTarget) SetPixel(x, y int16, _ color.RGBA) {
	g.c.SetPixel(int(x), int(y), g.col)
}

func (g *glyphTarget) Display() error {
	return nil
}

// DrawText renders s starting at (x, y), the top-left of the first cell,
// and returns the position after the last glyph. Lines wrap back to x at
// the right edge, or to column 0 when a glyph does not fit at x; running
// off the bottom restarts at the top line.
func (c *Canvas) DrawText(x, y int, s string, face *font.Face, fg, bg Color) (int, int) {
	if c.outOfBounds("text", x, y) {
		return x, y
	}

	target := &glyphTarget{c: c, col: fg}
	height := face.Height()
	px, py := x, y

	for _, r := range s {
		adv := face.Advance(r)
		left := x
		if x+adv > c.Width() {
			left = 0
		}
		if px+adv > c.Width() {
			px = left
			py += height
		}
		if py+height > c.Height() {
			px, py = left, y
		}

		for cy := py; cy < py+height; cy++ {
			c.hline(px, px+adv-1, cy, bg)
		}
		face.Glyph(r).Draw(target, int16(px), int16(py+face.Ascent()), color.RGBA{})

		px += adv
	}

	return px, py
}
