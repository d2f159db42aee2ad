// Package canvas models the tri-color panel as two independent black/white
// bitplanes and serializes them into the panel's 4-bit-per-pixel encoding.
package canvas

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 384
)

// Nibble codes of the device encoding.
const (
	CodeBlack  byte = 0x0
	CodeWhite  byte = 0x3
	CodeAccent byte = 0x4
)

type Option func(c *Canvas)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Canvas) {
		c.logger = logger
	}
}

// Canvas is not safe for concurrent use.
type Canvas struct {
	width    int
	height   int
	primary  *Bitplane
	accent   *Bitplane
	rotation Rotation
	mirror   Mirror
	logger   *zap.Logger
}

func New(width, height int, opts ...Option) *Canvas {
	c := &Canvas{
		width:   width,
		height:  height,
		primary: NewBitplane(width, height),
		accent:  NewBitplane(width, height),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Width is the logical width under the current rotation.
func (c *Canvas) Width() int {
	if c.rotation == Rotate90 || c.rotation == Rotate270 {
		return c.height
	}
	return c.width
}

// Height is the logical height under the current rotation.
func (c *Canvas) Height() int {
	if c.rotation == Rotate90 || c.rotation == Rotate270 {
		return c.width
	}
	return c.height
}

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.Width(), c.Height())
}

func (c *Canvas) PhysicalSize() (int, int) {
	return c.width, c.height
}

func (c *Canvas) Primary() *Bitplane {
	return c.primary
}

func (c *Canvas) Accent() *Bitplane {
	return c.accent
}

func (c *Canvas) Rotation() Rotation {
	return c.rotation
}

func (c *Canvas) SetRotation(r Rotation) {
	c.rotation = SnapRotation(int(r))
}

func (c *Canvas) Mirror() Mirror {
	return c.mirror
}

func (c *Canvas) SetMirror(m Mirror) {
	c.mirror = m
}

// transform maps a logical coordinate to its physical pixel: rotate first,
// then mirror.
func (c *Canvas) transform(x, y int) (int, int) {
	px, py := x, y
	switch c.rotation {
	case Rotate90:
		px, py = c.width-y-1, x
	case Rotate180:
		px, py = c.width-x-1, c.height-y-1
	case Rotate270:
		px, py = y, c.height-x-1
	}

	switch c.mirror {
	case MirrorHorizontal:
		px = c.width - px - 1
	case MirrorVertical:
		py = c.height - py - 1
	case MirrorBoth:
		px = c.width - px - 1
		py = c.height - py - 1
	}

	return px, py
}

func (c *Canvas) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Width() && y < c.Height()
}

// SetPixel routes accent to the accent plane and every other color to the
// primary plane. Pixels outside the logical bounds are clipped.
func (c *Canvas) SetPixel(x, y int, col Color) {
	if !c.contains(x, y) {
		return
	}
	px, py := c.transform(x, y)

	switch col {
	case Accent:
		c.accent.Set(px, py, true)
	case Black:
		c.primary.Set(px, py, true)
	default:
		c.primary.Set(px, py, false)
	}
}

// At reports the composited color of a logical pixel.
func (c *Canvas) At(x, y int) Color {
	if !c.contains(x, y) {
		return White
	}
	return c.physicalAt(c.transform(x, y))
}

func (c *Canvas) physicalAt(px, py int) Color {
	if c.accent.Ink(px, py) {
		return Accent
	}
	if c.primary.Ink(px, py) {
		return Black
	}
	return White
}

// Clear blanks both planes and then floods the plane owning col.
func (c *Canvas) Clear(col Color) {
	c.primary.Fill(false)
	c.accent.Fill(false)

	switch col {
	case Black:
		c.primary.Fill(true)
	case Accent:
		c.accent.Fill(true)
	}
}

// Serialize merges both planes into device bytes, two pixels per byte with
// the left pixel in the high nibble. Accent wins over black, black over white.
func (c *Canvas) Serialize() []byte {
	rowBytes := (c.width + 1) / 2
	out := make([]byte, rowBytes*c.height)

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x += 2 {
			hi := c.code(x, y)
			lo := CodeWhite
			if x+1 < c.width {
				lo = c.code(x+1, y)
			}
			out[y*rowBytes+x/2] = hi<<4 | lo
		}
	}

	return out
}

func (c *Canvas) code(px, py int) byte {
	switch c.physicalAt(px, py) {
	case Accent:
		return CodeAccent
	case Black:
		return CodeBlack
	}
	return CodeWhite
}

// Image renders the composited physical frame.
func (c *Canvas) Image() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.width, c.height), Palette)
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			img.SetColorIndex(x, y, uint8(c.physicalAt(x, y)))
		}
	}
	return img
}

// FrameSize is the number of device bytes for a physical size.
func FrameSize(width, height int) int {
	return (width + 1) / 2 * height
}

// DecodeFrame turns device bytes back into an image.
func DecodeFrame(frame []byte, width, height int) (*image.Paletted, error) {
	if len(frame) != FrameSize(width, height) {
		return nil, errors.Errorf("frame size %d, expected %d", len(frame), FrameSize(width, height))
	}

	rowBytes := (width + 1) / 2
	img := image.NewPaletted(image.Rect(0, 0, width, height), Palette)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			b := frame[y*rowBytes+x/2]
			if x%2 == 0 {
				b >>= 4
			}
			switch b & 0x0f {
			case CodeWhite:
				img.SetColorIndex(x, y, uint8(White))
			case CodeBlack:
				img.SetColorIndex(x, y, uint8(Black))
			case CodeAccent:
				img.SetColorIndex(x, y, uint8(Accent))
			default:
				return nil, errors.Errorf("invalid pixel code %#x at %d,%d", b&0x0f, x, y)
			}
		}
	}

	return img, nil
}
