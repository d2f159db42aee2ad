// Package font maps the font names accepted by the instruction language onto
// compiled-in tinyfont faces.
package font

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// DefaultName is the face selected by a fresh cursor.
const DefaultName = "Font12"

var ErrUnknownFont = errors.New("unknown font")

type Face struct {
	name   string
	fonter tinyfont.Fonter
	height int
	ascent int
}

func NewFace(name string, f tinyfont.Fonter) *Face {
	face := &Face{
		name:   name,
		fonter: f,
		height: int(f.GetYAdvance()),
	}

	for r := rune(0x20); r < 0x7f; r++ {
		info := f.GetGlyph(r).Info()
		if a := -int(info.YOffset); a > face.ascent {
			face.ascent = a
		}
	}
	if face.ascent > face.height {
		face.height = face.ascent
	}

	return face
}

func (f *Face) Name() string {
	return f.name
}

func (f *Face) Fonter() tinyfont.Fonter {
	return f.fonter
}

// Height is the line advance in pixels.
func (f *Face) Height() int {
	return f.height
}

// Ascent is the distance from the top of a line to its baseline.
func (f *Face) Ascent() int {
	return f.ascent
}

func (f *Face) Advance(r rune) int {
	return int(f.fonter.GetGlyph(r).Info().XAdvance)
}

func (f *Face) Glyph(r rune) tinyfont.Glypher {
	return f.fonter.GetGlyph(r)
}

type Table struct {
	faces map[string]*Face
	title cases.Caser
}

func NewTable(faces ...*Face) *Table {
	t := &Table{
		faces: make(map[string]*Face, len(faces)),
		title: cases.Title(language.Und, cases.NoLower),
	}
	for _, f := range faces {
		t.faces[f.name] = f
	}
	return t
}

// Default returns the faces shipped with the renderer, named after the
// Waveshare font files they replace.
func Default() *Table {
	return NewTable(
		NewFace("Font8", &proggy.TinySZ8pt7b),
		NewFace("Font12", &freemono.Regular9pt7b),
		NewFace("Font16", &freemono.Regular12pt7b),
		NewFace("Font20", &freemono.Regular18pt7b),
		NewFace("Font24", &freemono.Regular24pt7b),
	)
}

// Lookup finds a face by exact name, then retries with the first letter
// upper-cased so "font12" resolves to "Font12".
func (t *Table) Lookup(name string) (*Face, error) {
	if f, ok := t.faces[name]; ok {
		return f, nil
	}
	if f, ok := t.faces[t.title.String(name)]; ok {
		return f, nil
	}
	return nil, errors.Wrapf(ErrUnknownFont, "%q", name)
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.faces))
	for name := range t.faces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
