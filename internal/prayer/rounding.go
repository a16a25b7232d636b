package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// Rounding selects how computed instants are snapped to whole minutes.
type Rounding int

const (
	// Nearest rounds 30 seconds and above up, anything below down.
	Nearest Rounding = iota
	// Ceil rounds any partial minute up. Whole minutes are unchanged.
	Ceil
	// None keeps the seconds.
	None
)

func (r Rounding) String() string {
	switch r {
	case Ceil:
		return "Ceil"
	case None:
		return "None"
	default:
		return "Nearest"
	}
}

// ParseRounding is the inverse of Rounding.String, case-insensitive.
func ParseRounding(s string) (Rounding, error) {
	for _, r := range []Rounding{Nearest, Ceil, None} {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return Nearest, fmt.Errorf("%s: %q", config.ErrUnknownRounding, s)
}

// Apply snaps t according to r. Sub-second precision is always dropped, which
// makes Apply idempotent for every policy.
func (r Rounding) Apply(t time.Time) time.Time {
	t = t.Truncate(time.Second)
	if r == None {
		return t
	}

	seconds := time.Duration(t.Second()) * time.Second
	switch {
	case seconds == 0:
		return t
	case r == Ceil || seconds >= 30*time.Second:
		return t.Add(time.Minute - seconds)
	default:
		return t.Add(-seconds)
	}
}
