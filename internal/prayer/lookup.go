package prayer

import "time"

// CurrentAt returns the latest prayer whose time is at or before at. The
// boolean is false when at precedes Fajr, in which case no prayer is current.
func (t *Times) CurrentAt(at time.Time) (Prayer, bool) {
	for p := FajrTomorrow; p >= Fajr; p-- {
		if !t.times[p].After(at) {
			return p, true
		}
	}
	return Fajr, false
}

// NextAt returns the prayer following the current one at at. Before Fajr the
// next prayer is Fajr; FajrTomorrow is terminal and is its own successor.
func (t *Times) NextAt(at time.Time) Prayer {
	current, ok := t.CurrentAt(at)
	if !ok {
		return Fajr
	}
	if current == FajrTomorrow {
		return FajrTomorrow
	}
	return current + 1
}

// TimeRemainingAt returns the time left until the next prayer. It is zero or
// negative once FajrTomorrow has passed.
func (t *Times) TimeRemainingAt(at time.Time) time.Duration {
	return t.times[t.NextAt(at)].Sub(at)
}
