// Package interp decodes and runs the bracketed instruction language against
// a canvas and the panel it belongs to.
package interp

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"epaper/pkg/bitmap"
	"epaper/pkg/canvas"
	"epaper/pkg/font"
	"epaper/pkg/panel"
)

type Option func(s *Session)

func WithFonts(t *font.Table) Option {
	return func(s *Session) {
		s.fonts = t
	}
}

// WithFs sets where i= images are loaded from.
func WithFs(fs afero.Fs) Option {
	return func(s *Session) {
		s.fs = fs
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session owns the canvas and cursor of one panel. It is not safe for
// concurrent use.
type Session struct {
	canvas *canvas.Canvas
	panel  *panel.Session
	fonts  *font.Table
	fs     afero.Fs
	now    func() time.Time
	logger *zap.Logger

	parser *Parser
	cursor Cursor
}

func New(c *canvas.Canvas, p *panel.Session, opts ...Option) (*Session, error) {
	s := &Session{
		canvas: c,
		panel:  p,
		fonts:  font.Default(),
		fs:     afero.NewOsFs(),
		now:    time.Now,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	face, err := s.fonts.Lookup(font.DefaultName)
	if err != nil {
		return nil, errors.Wrap(err, "default font")
	}

	s.parser = NewParser(s.fonts)
	s.cursor = newCursor(face)
	return s, nil
}

func (s *Session) Canvas() *canvas.Canvas {
	return s.canvas
}

func (s *Session) Panel() *panel.Session {
	return s.panel
}

func (s *Session) Cursor() Cursor {
	return s.cursor
}

// Parse validates instr without touching any state.
func (s *Session) Parse(instr string) ([]Op, error) {
	return s.parser.Parse(instr)
}

// Execute decodes and applies instr token by token. On error the tokens
// before the failing one stay applied and nothing is committed. When any
// token drew something the canvas is committed to the panel afterwards.
func (s *Session) Execute(ctx context.Context, instr string) error {
	d := s.parser.decoder(instr)
	render := false

	for {
		op, err := d.next()
		if err != nil {
			s.logger.With(zap.Error(err)).Warn("instruction")
			return err
		}
		if op == nil {
			break
		}

		// Drawing queued before a sleep is shown before the panel powers
		// down.
		if sp, ok := op.(*Special); ok && sp.Action == PanelSleep && render {
			if err := s.commit(ctx, op.token().Pos); err != nil {
				return err
			}
			render = false
		}

		if err := s.apply(ctx, op); err != nil {
			tok := op.token()
			ie := execErr(tok.Pos, tok.Key, err, "apply")
			s.logger.With(zap.Error(ie)).Warn("instruction")
			return ie
		}
		render = render || renders(op)
	}

	if !render {
		return nil
	}
	return s.commit(ctx, len(instr))
}

func (s *Session) commit(ctx context.Context, pos int) error {
	if err := s.panel.Commit(ctx, s.canvas); err != nil {
		ie := &Error{Kind: ExecutionError, Pos: pos, Msg: "commit", Err: err}
		s.logger.With(zap.Error(ie)).Warn("instruction")
		return ie
	}
	return nil
}

func (s *Session) reset() {
	s.canvas.Clear(canvas.White)
	s.canvas.SetRotation(canvas.Rotate0)
	s.canvas.SetMirror(canvas.MirrorNone)

	face, err := s.fonts.Lookup(font.DefaultName)
	if err != nil {
		face = s.cursor.Face
	}
	s.cursor = newCursor(face)
}

func (s *Session) apply(ctx context.Context, op Op) error {
	c := &s.cursor

	switch o := op.(type) {
	case *SetFont:
		c.Face = o.Face

	case *SetPosition:
		c.X, c.Y = o.X, o.Y

	case *SetColor:
		switch o.Target {
		case Foreground:
			c.Foreground = o.Color
		case Background:
			c.Background = o.Color
		case Border:
			c.Border = o.Color
			return s.panel.SetBorder(ctx, o.Color)
		}

	case *SetMirror:
		s.canvas.SetMirror(o.Mirror)

	case *SetRotation:
		s.canvas.SetRotation(o.Rotation)

	case *Special:
		return s.special(ctx, o)

	case *DrawPoint:
		s.canvas.DrawPoint(c.X, c.Y, c.Foreground, o.Size)
		c.X += o.Size

	case *DrawCircle:
		s.canvas.DrawCircle(c.X, c.Y, o.Radius, c.Foreground, o.Size, o.Filled)

	case *DrawRectangle:
		s.canvas.DrawRectangle(c.X, c.Y, o.X, o.Y, c.Foreground, o.Size, o.Filled)

	case *DrawLine:
		s.canvas.DrawLine(c.X, c.Y, o.X, o.Y, c.Foreground, c.Background, o.Style, o.Size)
		c.X, c.Y = o.X, o.Y

	case *DrawImage:
		img, err := bitmap.Open(s.fs, o.File)
		if err != nil {
			return err
		}
		s.canvas.BlitImage(c.X, c.Y, img)

	case *DrawText:
		s.text(o.Text)

	case *DrawNumber:
		s.text(strconv.Itoa(o.Value))

	case *DrawClock:
		s.text(formatClock(s.now(), o.Format))

	default:
		return errors.Errorf("unsupported op %T", op)
	}

	return nil
}

func (s *Session) text(str string) {
	c := &s.cursor
	c.X, c.Y = s.canvas.DrawText(c.X, c.Y, str, c.Face, c.Foreground, c.Background)
}

func (s *Session) special(ctx context.Context, o *Special) error {
	c := &s.cursor

	switch o.Action {
	case FullClear:
		if err := s.panel.Clear(ctx); err != nil {
			return err
		}
		s.reset()
		return s.panel.SetBorder(ctx, s.cursor.Border)

	case PlaneClear:
		s.reset()
		return s.panel.SetBorder(ctx, s.cursor.Border)

	case ReportCursor:
		s.logger.With(zap.Int("x", c.X), zap.Int("y", c.Y)).Info("cursor")

	case SaveCursor:
		c.Save()

	case RestoreCursor:
		if !c.Restore() {
			s.logger.Warn("cursor-not-saved")
		}

	case PanelSleep:
		return s.panel.Sleep(ctx)

	case PanelWake:
		return s.panel.Wake(ctx)

	default:
		return errors.Errorf("unsupported special %d", o.Action)
	}

	return nil
}
