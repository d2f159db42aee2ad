package interp

import (
	"fmt"
	"time"
)

// formatClock renders t the way the T and D keys print it.
func formatClock(t time.Time, f ClockFormat) string {
	switch f {
	case TimeSeconds:
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	case DateNumeric:
		return fmt.Sprintf(" %d-%d-%d ", t.Day(), int(t.Month()), t.Year())
	case DateWords:
		return fmt.Sprintf("%.3s %3d %.3s %d ", t.Weekday(), t.Day(), t.Month(), t.Year())
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
