package canvas

import (
	"image"
	"image/color"
)

// Quantize maps an arbitrary color onto the panel's three inks.
func Quantize(col color.Color) Color {
	r, g, b, _ := col.RGBA()
	r, g, b = r>>8, g>>8, b>>8

	if r >= 0x80 && g < 0x80 && b < 0x80 {
		return Accent
	}

	// ITU-R 601 luma, integer form.
	if (299*r+587*g+114*b)/1000 < 0x80 {
		return Black
	}
	return White
}

// BlitImage draws img with its top-left corner at (x, y), clipping pixels
// that fall off the canvas.
func (c *Canvas) BlitImage(x, y int, img image.Image) {
	if c.outOfBounds("image", x, y) {
		return
	}

	b := img.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		dy := y + sy - b.Min.Y
		if dy >= c.Height() {
			break
		}
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dx := x + sx - b.Min.X
			if dx >= c.Width() {
				break
			}
			c.SetPixel(dx, dy, Quantize(img.At(sx, sy)))
		}
	}
}
