package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RetryPolicy spaces out reconnect attempts. MaxAttempts 0 retries forever.
type RetryPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
}

var DefaultRetryPolicy = RetryPolicy{
	Interval:    time.Second,
	MaxInterval: 30 * time.Second,
	Multiplier:  2,
}

func (p RetryPolicy) next(d time.Duration) time.Duration {
	if p.Multiplier > 1 {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	if p.MaxInterval > 0 && d > p.MaxInterval {
		d = p.MaxInterval
	}
	return d
}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, fn func(ctx context.Context) error) error {
	wait := p.Interval
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return errors.Wrapf(err, "gave up after %d attempts", attempt)
		}

		logger.With(zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err)).Warn("retry")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait = p.next(wait)
	}
}
