package canvas

import (
	"image/color"
)

type Color uint8

const (
	White Color = iota
	Black
	Accent
)

// Palette indexes match Color values.
var Palette = color.Palette{
	color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	color.RGBA{R: 0xcc, G: 0x00, B: 0x00, A: 0xff},
}

// ParseColor accepts the instruction letters B, W and C in either case.
func ParseColor(b byte) (Color, bool) {
	switch b {
	case 'W', 'w':
		return White, true
	case 'B', 'b':
		return Black, true
	case 'C', 'c':
		return Accent, true
	}
	return White, false
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Accent:
		return "accent"
	}
	return "unknown"
}

type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// SnapRotation rounds any angle to the nearest quarter turn.
func SnapRotation(deg int) Rotation {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return Rotation(((deg + 45) / 90 % 4) * 90)
}

type Mirror uint8

const (
	MirrorNone Mirror = iota
	MirrorHorizontal
	MirrorVertical
	MirrorBoth
)

// ParseMirror accepts N, H, V and O (origin, both axes) in either case.
func ParseMirror(b byte) (Mirror, bool) {
	switch b {
	case 'N', 'n':
		return MirrorNone, true
	case 'H', 'h':
		return MirrorHorizontal, true
	case 'V', 'v':
		return MirrorVertical, true
	case 'O', 'o':
		return MirrorBoth, true
	}
	return MirrorNone, false
}

func (m Mirror) String() string {
	switch m {
	case MirrorNone:
		return "none"
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorBoth:
		return "both"
	}
	return "unknown"
}

type LineStyle uint8

const (
	Solid LineStyle = iota
	Dotted
)

const (
	MinSize = 1
	MaxSize = 8
)

// ValidSize reports whether n is an accepted dot size.
func ValidSize(n int) bool {
	return n >= MinSize && n <= MaxSize
}
