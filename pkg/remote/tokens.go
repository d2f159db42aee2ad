// Package remote runs the chunked request/response link between a client
// that sends instructions and the server that renders them.
package remote

import (
	"bytes"
	"fmt"
)

// Link messages. They are matched by substring, so instruction text that
// contains one of them is taken as that message.
const (
	TokenNew     = "<<NEW>>"
	TokenClose   = "<<CLOSE>>"
	TokenStart   = "<<START>>"
	TokenMore    = "<<MORE>>"
	TokenOK      = "<<OK>>"
	TokenOverrun = "<<OVERRUN>>"
)

// ErrorToken is the reply for a failed instruction, e.g. <<ERROR-2>>.
func ErrorToken(code int) string {
	return fmt.Sprintf("<<ERROR%d>>", code)
}

type Status int

const (
	StatusUnknown Status = iota
	StatusOK
	StatusMore
	StatusStart
	StatusExecution
	StatusSyntax
	StatusOverrun
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMore:
		return "more"
	case StatusStart:
		return "start"
	case StatusExecution:
		return "execution-error"
	case StatusSyntax:
		return "syntax-error"
	case StatusOverrun:
		return "overrun"
	}
	return "unknown"
}

var statuses = []struct {
	token  []byte
	status Status
}{
	{[]byte(TokenOK), StatusOK},
	{[]byte(ErrorToken(-1)), StatusExecution},
	{[]byte(ErrorToken(-2)), StatusSyntax},
	{[]byte(TokenOverrun), StatusOverrun},
	{[]byte(TokenMore), StatusMore},
	{[]byte(TokenStart), StatusStart},
}

// ParseStatus finds the reply in b. Several replies can arrive in one read,
// so final replies (OK, the errors, OVERRUN) win over MORE and START.
func ParseStatus(b []byte) Status {
	for _, s := range statuses {
		if bytes.Contains(b, s.token) {
			return s.status
		}
	}
	return StatusUnknown
}
