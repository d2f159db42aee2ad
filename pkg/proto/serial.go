package proto

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

type Options struct {
	DTR      bool
	RTS      bool
	BaudRate int
}

func NewSerial(name string) *Serial {
	return &Serial{name: name}
}

// Serial is a link Conn over a serial port. The port is picked by substring
// match against the system port list.
type Serial struct {
	name     string
	port     serial.Port
	deadline time.Time
}

var _ Conn = (*Serial)(nil)

func (s *Serial) Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *Serial) Open(opts *Options) error {
	ports, err := s.Ports()
	if err != nil {
		return err
	}

	var matched string
	for _, name := range ports {
		if strings.Contains(name, s.name) {
			matched = name
			break
		}
	}
	if matched == "" {
		return errors.Errorf("serial port %q not found", s.name)
	}

	port, err := serial.Open(matched, &serial.Mode{BaudRate: opts.BaudRate})
	if err != nil {
		return err
	}

	if err := port.SetDTR(opts.DTR); err != nil {
		return err
	}

	if err := port.SetRTS(opts.RTS); err != nil {
		return err
	}

	s.port = port
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

func (s *Serial) Read(p []byte) (n int, err error) {
	n, err = s.port.Read(p)
	if n == 0 && err == nil && !s.deadline.IsZero() {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *Serial) Write(p []byte) (n int, err error) {
	return s.port.Write(p)
}

// SetReadDeadline maps a deadline onto the port's read timeout. A timed out
// read reports os.ErrDeadlineExceeded like a file or socket would.
func (s *Serial) SetReadDeadline(t time.Time) error {
	s.deadline = t
	if t.IsZero() {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}

	d := time.Until(t)
	if d <= 0 {
		d = time.Millisecond
	}
	return s.port.SetReadTimeout(d)
}
