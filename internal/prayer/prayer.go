// Package prayer derives the daily schedule of Islamic prayer times from the
// solar model in package astronomy.
//
// The package is pure: it never reads the wall clock and never logs. Every
// value it returns is immutable.
package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// Prayer identifies one position of the daily schedule.
type Prayer int

// Schedule order.
const (
	Fajr Prayer = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Ishaa
	Qiyam
	FajrTomorrow
)

// All returns every prayer in schedule order.
func All() []Prayer {
	return []Prayer{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Ishaa, Qiyam, FajrTomorrow}
}

var prayerIdentifiers = [...]string{
	Fajr:         "Fajr",
	Sunrise:      "Sunrise",
	Dhuhr:        "Dhuhr",
	Asr:          "Asr",
	Maghrib:      "Maghrib",
	Ishaa:        "Ishaa",
	Qiyam:        "Qiyam",
	FajrTomorrow: "FajrTomorrow",
}

// String returns the identifier of p, distinguishing Fajr from FajrTomorrow.
func (p Prayer) String() string {
	if p < Fajr || p > FajrTomorrow {
		return fmt.Sprintf("Prayer(%d)", int(p))
	}
	return prayerIdentifiers[p]
}

// ParsePrayer is the inverse of String, case-insensitive.
func ParsePrayer(s string) (Prayer, error) {
	for _, p := range All() {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%s: %q", config.ErrUnknownPrayer, s)
}

// MarshalText encodes p by its identifier.
func (p Prayer) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes an identifier produced by MarshalText.
func (p *Prayer) UnmarshalText(b []byte) error {
	v, err := ParsePrayer(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Name returns the English display name of p on the day of ref. Both Fajr
// positions read "Fajr", and Dhuhr reads "Jumua" on Fridays.
func (p Prayer) Name(ref time.Time) string {
	switch p {
	case FajrTomorrow:
		return Fajr.String()
	case Dhuhr:
		if ref.Weekday() == time.Friday {
			return "Jumua"
		}
	}
	return p.String()
}

// MessageID returns the translation key for the display name of p on the day of ref.
func (p Prayer) MessageID(ref time.Time) string {
	switch p {
	case Fajr, FajrTomorrow:
		return config.TKeyFajr
	case Sunrise:
		return config.TKeySunrise
	case Dhuhr:
		if ref.Weekday() == time.Friday {
			return config.TKeyJumua
		}
		return config.TKeyDhuhr
	case Asr:
		return config.TKeyAsr
	case Maghrib:
		return config.TKeyMaghrib
	case Ishaa:
		return config.TKeyIshaa
	default:
		return config.TKeyQiyam
	}
}
