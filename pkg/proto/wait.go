package proto

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrBusyTimeout = errors.New("panel busy timeout")

type Busier interface {
	Busy() bool
}

// WaitIdle polls b every interval until it reports idle. A zero timeout
// waits forever; only ctx can abort it then.
func WaitIdle(ctx context.Context, b Busier, interval, timeout time.Duration) error {
	if !b.Busy() {
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && timeout > 0 {
				return errors.Wrapf(ErrBusyTimeout, "after %s", timeout)
			}
			return ctx.Err()
		case <-ticker.C:
			if !b.Busy() {
				return nil
			}
		}
	}
}
