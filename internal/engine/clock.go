package engine

import (
	"time"

	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// Clock abstracts time.Now() to allow deterministic testing.
// The prayer package itself never reads the clock: every lookup takes an
// explicit instant, and the helpers below supply it.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the calendar date of c.Now() as seen from loc. A nil loc
// means the clock's own location.
func Today(c Clock, loc *time.Location) prayer.Date {
	now := c.Now()
	if loc != nil {
		now = now.In(loc)
	}
	return prayer.DateOf(now)
}

// CurrentPrayer is Times.CurrentAt evaluated at c.Now().
func CurrentPrayer(t *prayer.Times, c Clock) (prayer.Prayer, bool) {
	return t.CurrentAt(c.Now())
}

// NextPrayer is Times.NextAt evaluated at c.Now().
func NextPrayer(t *prayer.Times, c Clock) prayer.Prayer {
	return t.NextAt(c.Now())
}

// TimeRemaining is Times.TimeRemainingAt evaluated at c.Now().
func TimeRemaining(t *prayer.Times, c Clock) time.Duration {
	return t.TimeRemainingAt(c.Now())
}
