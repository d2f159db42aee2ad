package interp

import (
	"epaper/pkg/canvas"
	"epaper/pkg/font"
)

// Cursor is the drawing state every op reads or changes.
type Cursor struct {
	X, Y       int
	Foreground canvas.Color
	Background canvas.Color
	Border     canvas.Color
	Face       *font.Face

	saved  bool
	savedX int
	savedY int
}

func newCursor(face *font.Face) Cursor {
	return Cursor{
		Foreground: canvas.Black,
		Background: canvas.White,
		Border:     canvas.White,
		Face:       face,
	}
}

func (c *Cursor) Save() {
	c.saved = true
	c.savedX, c.savedY = c.X, c.Y
}

// Restore moves back to the saved position and reports whether there was
// one.
func (c *Cursor) Restore() bool {
	if !c.saved {
		return false
	}
	c.X, c.Y = c.savedX, c.savedY
	return true
}

func (c *Cursor) Saved() (int, int, bool) {
	return c.savedX, c.savedY, c.saved
}
