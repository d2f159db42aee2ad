package interp

import (
	"epaper/pkg/canvas"
	"epaper/pkg/font"
)

// Token locates an op inside its instruction.
type Token struct {
	Key byte
	Pos int
}

func (t Token) token() Token {
	return t
}

// Op is one decoded instruction token with a validated payload.
type Op interface {
	token() Token
}

type SetFont struct {
	Token
	Face *font.Face
}

type SetPosition struct {
	Token
	X, Y int
}

type ColorTarget int

const (
	Foreground ColorTarget = iota
	Background
	Border
)

type SetColor struct {
	Token
	Target ColorTarget
	Color  canvas.Color
}

type SetMirror struct {
	Token
	Mirror canvas.Mirror
}

type SetRotation struct {
	Token
	Rotation canvas.Rotation
}

type SpecialAction int

const (
	FullClear SpecialAction = iota
	PlaneClear
	ReportCursor
	SaveCursor
	RestoreCursor
	PanelSleep
	PanelWake
)

type Special struct {
	Token
	Action SpecialAction
}

type DrawPoint struct {
	Token
	Size int
}

type DrawCircle struct {
	Token
	Radius int
	Size   int
	Filled bool
}

type DrawRectangle struct {
	Token
	X, Y   int
	Size   int
	Filled bool
}

type DrawLine struct {
	Token
	X, Y  int
	Style canvas.LineStyle
	Size  int
}

type DrawImage struct {
	Token
	File string
}

type DrawText struct {
	Token
	Text string
}

type DrawNumber struct {
	Token
	Value int
}

type ClockFormat int

const (
	TimeMinutes ClockFormat = iota
	TimeSeconds
	DateNumeric
	DateWords
)

type DrawClock struct {
	Token
	Format ClockFormat
}

// renders reports whether applying op changes what the panel shows.
func renders(op Op) bool {
	switch o := op.(type) {
	case *SetColor:
		return o.Target == Border
	case *DrawPoint, *DrawCircle, *DrawRectangle, *DrawLine,
		*DrawImage, *DrawText, *DrawNumber, *DrawClock:
		return true
	}
	return false
}
