package interp

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	ExecutionError Kind = iota + 1
	SyntaxError
)

// Status codes reported to link peers.
const (
	CodeOK        = 0
	CodeExecution = -1
	CodeSyntax    = -2
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case ExecutionError:
		return "execution error"
	}
	return "error"
}

// Error describes why an instruction stopped. Pos is the byte offset of the
// failing token's key, or of the offending byte for framing errors.
type Error struct {
	Kind Kind
	Pos  int
	Key  byte
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s at %d", e.Kind, e.Pos)
	if e.Key != 0 {
		s += fmt.Sprintf(" (%c)", e.Key)
	}
	s += ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() int {
	if e.Kind == SyntaxError {
		return CodeSyntax
	}
	return CodeExecution
}

func syntaxErr(pos int, key byte, format string, args ...interface{}) *Error {
	return &Error{Kind: SyntaxError, Pos: pos, Key: key, Msg: fmt.Sprintf(format, args...)}
}

func execErr(pos int, key byte, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: ExecutionError, Pos: pos, Key: key, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf maps an error returned by Execute onto a link status code. Errors
// that did not come from the interpreter count as execution errors.
func CodeOf(err error) int {
	if err == nil {
		return CodeOK
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code()
	}
	return CodeExecution
}
