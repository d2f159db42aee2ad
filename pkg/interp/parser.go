package interp

import (
	"strconv"
	"strings"

	"epaper/pkg/canvas"
	"epaper/pkg/font"
)

// MaxInstruction is the longest instruction a file or link peer may send.
const MaxInstruction = 1000

// Field limits; longer fields are syntax errors.
const (
	maxNumber = 5
	maxFont   = 15
	maxText   = 200
	maxFile   = 100
)

type Parser struct {
	fonts *font.Table
}

func NewParser(fonts *font.Table) *Parser {
	return &Parser{fonts: fonts}
}

// Parse decodes a whole instruction without executing it.
func (p *Parser) Parse(instr string) ([]Op, error) {
	d := p.decoder(instr)

	var ops []Op
	for {
		op, err := d.next()
		if err != nil {
			return ops, err
		}
		if op == nil {
			return ops, nil
		}
		ops = append(ops, op)
	}
}

// Parse decodes instr against the default font table.
func Parse(instr string) ([]Op, error) {
	return NewParser(font.Default()).Parse(instr)
}

func (p *Parser) decoder(instr string) *decoder {
	return &decoder{buf: instr, fonts: p.fonts}
}

type state int

const (
	expectStart state = iota
	expectKey
	done
)

// decoder walks an instruction one token at a time.
type decoder struct {
	buf   string
	pos   int
	state state
	fonts *font.Table
}

type decodeFunc func(d *decoder, tok Token) (Op, error)

var decoders = map[byte]decodeFunc{
	'f': (*decoder).fontName,
	'p': (*decoder).position,
	'd': (*decoder).color,
	'b': (*decoder).color,
	'B': (*decoder).color,
	'm': (*decoder).mirror,
	'r': (*decoder).rotation,
	'!': (*decoder).special,
	'P': (*decoder).point,
	'c': (*decoder).circle,
	'C': (*decoder).circle,
	'q': (*decoder).rectangle,
	'Q': (*decoder).rectangle,
	'l': (*decoder).line,
	'i': (*decoder).image,
	't': (*decoder).text,
	'n': (*decoder).number,
	'T': (*decoder).clock,
	'D': (*decoder).clock,
}

func isSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\r' || c == '\n'
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// next returns the next op, or nil once the closing '>' has been seen.
func (d *decoder) next() (Op, error) {
	switch d.state {
	case done:
		return nil, nil
	case expectStart:
		if len(d.buf) == 0 || d.buf[0] != '<' {
			return nil, syntaxErr(0, 0, "missing '<'")
		}
		d.pos = 1
		d.state = expectKey
	}

	for d.pos < len(d.buf) && isSeparator(d.buf[d.pos]) {
		d.pos++
	}
	if d.pos >= len(d.buf) {
		return nil, syntaxErr(d.pos, 0, "missing '>'")
	}

	if d.buf[d.pos] == '>' {
		d.state = done
		for i := d.pos + 1; i < len(d.buf); i++ {
			if !isBlank(d.buf[i]) {
				return nil, syntaxErr(i, 0, "unexpected %q after '>'", d.buf[i])
			}
		}
		return nil, nil
	}

	tok := Token{Key: d.buf[d.pos], Pos: d.pos}
	d.pos++

	decode, ok := decoders[tok.Key]
	if !ok {
		return nil, syntaxErr(tok.Pos, tok.Key, "unknown key")
	}
	if d.pos >= len(d.buf) || d.buf[d.pos] != '=' {
		return nil, syntaxErr(tok.Pos, tok.Key, "expected '='")
	}
	d.pos++

	return decode(d, tok)
}

// field reads up to ':' or, for the last field of a token, up to the
// token's end.
func (d *decoder) field(tok Token, last bool, limit int) (string, error) {
	start := d.pos
	for ; d.pos < len(d.buf); d.pos++ {
		c := d.buf[d.pos]
		if !last && c == ':' {
			break
		}
		if c == '>' || isSeparator(c) {
			if !last {
				return "", syntaxErr(d.pos, tok.Key, "missing ':'")
			}
			break
		}
		if d.pos-start >= limit {
			return "", syntaxErr(tok.Pos, tok.Key, "field too long")
		}
	}
	if d.pos >= len(d.buf) {
		return "", syntaxErr(d.pos, tok.Key, "missing delimiter")
	}

	f := d.buf[start:d.pos]
	if f == "" {
		return "", syntaxErr(start, tok.Key, "empty field")
	}
	if !last {
		d.pos++
	}
	return f, nil
}

func (d *decoder) num(tok Token, last bool) (int, error) {
	f, err := d.field(tok, last, maxNumber)
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(f); i++ {
		if f[i] < '0' || f[i] > '9' {
			return 0, execErr(tok.Pos, tok.Key, nil, "%q is not a number", f)
		}
	}
	n, _ := strconv.Atoi(f)
	return n, nil
}

func (d *decoder) size(tok Token) (int, error) {
	n, err := d.num(tok, true)
	if err != nil {
		return 0, err
	}
	if !canvas.ValidSize(n) {
		return 0, execErr(tok.Pos, tok.Key, nil, "size %d outside %d-%d", n, canvas.MinSize, canvas.MaxSize)
	}
	return n, nil
}

func (d *decoder) letter(tok Token) (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, syntaxErr(d.pos, tok.Key, "missing value")
	}
	c := d.buf[d.pos]
	if c == '>' || isSeparator(c) {
		return 0, syntaxErr(d.pos, tok.Key, "empty field")
	}
	d.pos++
	return c, nil
}

// quoted reads a '...' field. A backslash passes the next byte through.
func (d *decoder) quoted(tok Token, limit int) (string, error) {
	if d.pos >= len(d.buf) || d.buf[d.pos] != '\'' {
		return "", syntaxErr(d.pos, tok.Key, "expected quote")
	}
	d.pos++

	var sb strings.Builder
	escape := false
	for ; d.pos < len(d.buf); d.pos++ {
		c := d.buf[d.pos]
		if c == '\\' && !escape {
			escape = true
			continue
		}
		if c == '\'' && !escape {
			d.pos++
			return sb.String(), nil
		}
		if sb.Len() >= limit {
			return "", syntaxErr(tok.Pos, tok.Key, "field too long")
		}
		sb.WriteByte(c)
		escape = false
	}

	return "", syntaxErr(tok.Pos, tok.Key, "unterminated quote")
}

func (d *decoder) fontName(tok Token) (Op, error) {
	name, err := d.quoted(tok, maxFont)
	if err != nil {
		return nil, err
	}
	face, err := d.fonts.Lookup(name)
	if err != nil {
		return nil, execErr(tok.Pos, tok.Key, err, "set font")
	}
	return &SetFont{Token: tok, Face: face}, nil
}

func (d *decoder) position(tok Token) (Op, error) {
	x, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	y, err := d.num(tok, true)
	if err != nil {
		return nil, err
	}
	return &SetPosition{Token: tok, X: x, Y: y}, nil
}

func (d *decoder) color(tok Token) (Op, error) {
	c, err := d.letter(tok)
	if err != nil {
		return nil, err
	}
	col, ok := canvas.ParseColor(c)
	if !ok {
		return nil, execErr(tok.Pos, tok.Key, nil, "invalid color %q", c)
	}

	target := Foreground
	switch tok.Key {
	case 'b':
		target = Background
	case 'B':
		target = Border
	}
	return &SetColor{Token: tok, Target: target, Color: col}, nil
}

func (d *decoder) mirror(tok Token) (Op, error) {
	c, err := d.letter(tok)
	if err != nil {
		return nil, err
	}
	m, ok := canvas.ParseMirror(c)
	if !ok {
		return nil, execErr(tok.Pos, tok.Key, nil, "invalid mirror %q", c)
	}
	return &SetMirror{Token: tok, Mirror: m}, nil
}

func (d *decoder) rotation(tok Token) (Op, error) {
	deg, err := d.num(tok, true)
	if err != nil {
		return nil, err
	}
	return &SetRotation{Token: tok, Rotation: canvas.SnapRotation(deg)}, nil
}

var specials = map[byte]SpecialAction{
	'C': FullClear,
	'c': PlaneClear,
	'd': ReportCursor,
	'D': ReportCursor,
	's': SaveCursor,
	'S': SaveCursor,
	'r': RestoreCursor,
	'R': RestoreCursor,
	'p': PanelSleep,
	'P': PanelSleep,
	'i': PanelWake,
	'I': PanelWake,
}

func (d *decoder) special(tok Token) (Op, error) {
	c, err := d.letter(tok)
	if err != nil {
		return nil, err
	}
	action, ok := specials[c]
	if !ok {
		return nil, execErr(tok.Pos, tok.Key, nil, "invalid special %q", c)
	}
	return &Special{Token: tok, Action: action}, nil
}

func (d *decoder) point(tok Token) (Op, error) {
	size, err := d.size(tok)
	if err != nil {
		return nil, err
	}
	return &DrawPoint{Token: tok, Size: size}, nil
}

func (d *decoder) circle(tok Token) (Op, error) {
	r, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	size, err := d.size(tok)
	if err != nil {
		return nil, err
	}
	return &DrawCircle{Token: tok, Radius: r, Size: size, Filled: tok.Key == 'C'}, nil
}

func (d *decoder) rectangle(tok Token) (Op, error) {
	x, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	y, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	size, err := d.size(tok)
	if err != nil {
		return nil, err
	}
	return &DrawRectangle{Token: tok, X: x, Y: y, Size: size, Filled: tok.Key == 'Q'}, nil
}

func (d *decoder) line(tok Token) (Op, error) {
	x, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	y, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	z, err := d.num(tok, false)
	if err != nil {
		return nil, err
	}
	size, err := d.size(tok)
	if err != nil {
		return nil, err
	}

	style := canvas.Solid
	if z > 0 {
		style = canvas.Dotted
	}
	return &DrawLine{Token: tok, X: x, Y: y, Style: style, Size: size}, nil
}

func (d *decoder) image(tok Token) (Op, error) {
	name, err := d.quoted(tok, maxFile)
	if err != nil {
		return nil, err
	}
	return &DrawImage{Token: tok, File: name}, nil
}

func (d *decoder) text(tok Token) (Op, error) {
	s, err := d.quoted(tok, maxText)
	if err != nil {
		return nil, err
	}
	return &DrawText{Token: tok, Text: s}, nil
}

func (d *decoder) number(tok Token) (Op, error) {
	s, err := d.quoted(tok, maxText)
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, execErr(tok.Pos, tok.Key, err, "invalid number %q", s)
	}
	return &DrawNumber{Token: tok, Value: n}, nil
}

func (d *decoder) clock(tok Token) (Op, error) {
	c, err := d.letter(tok)
	if err != nil {
		return nil, err
	}

	format := TimeMinutes
	switch {
	case tok.Key == 'T' && (c == 's' || c == 'S'):
		format = TimeSeconds
	case tok.Key == 'T' && (c == 'n' || c == 'N'):
		format = TimeMinutes
	case tok.Key == 'D' && (c == 'n' || c == 'N'):
		format = DateNumeric
	case tok.Key == 'D' && (c == 'w' || c == 'W'):
		format = DateWords
	default:
		return nil, execErr(tok.Pos, tok.Key, nil, "invalid clock flag %q", c)
	}
	return &DrawClock{Token: tok, Format: format}, nil
}
