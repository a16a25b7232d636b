package prayer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
)

// highLatitudeValve is the absolute latitude from which the moonsighting
// committee replaces the twilight angles by a seventh of the night.
const highLatitudeValve = 55.0

// ErrUnordered is returned by New when the sun stays too high for the
// twilight angles and the high latitude fallback would put a prayer before
// the one preceding it. It wraps astronomy.ErrNoCrossing.
var ErrUnordered = fmt.Errorf("%s: %w", config.ErrScheduleOrder, astronomy.ErrNoCrossing)

// Times is the prayer schedule of one date at one position. All instants are
// UTC. Times is immutable and safe for concurrent use.
type Times struct {
	coordinates astronomy.Coordinates
	date        Date
	parameters  Parameters

	times         [FajrTomorrow + 1]time.Time
	middleOfNight time.Time
}

// New computes the schedule of date at coordinates.
//
// date must be a valid calendar date; New panics otherwise. Use Builder for a
// checked entry point. New returns an error wrapping astronomy.ErrNoCrossing
// when the sun does not rise or set on the date or on either of the two
// following days, and ErrUnordered when the instants it would return are
// not strictly increasing in prayer order.
func New(date Date, coordinates astronomy.Coordinates, params Parameters) (*Times, error) {
	if !date.Valid() {
		panic(fmt.Sprintf("%s: %s", config.ErrInvalidDate, date))
	}

	today, err := newDay(date, coordinates)
	if err != nil {
		return nil, err
	}
	tomorrow, err := newDay(date.AddDays(1), coordinates)
	if err != nil {
		return nil, err
	}
	dayAfter, err := newDay(date.AddDays(2), coordinates)
	if err != nil {
		return nil, err
	}

	night := tomorrow.Sunrise().Sub(today.Sunset())
	rounding := params.Rounding()
	final := func(p Prayer, t time.Time) time.Time {
		return rounding.Apply(t.Add(params.TimeAdjustment(p)))
	}

	asr, err := today.Afternoon(params.Madhab().ShadowLength())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSchedule, err)
	}

	t := &Times{coordinates: coordinates, date: date, parameters: params}
	t.times[Fajr] = final(Fajr, fajr(today, date, night, params))
	t.times[Sunrise] = final(Sunrise, today.Sunrise())
	t.times[Dhuhr] = final(Dhuhr, today.Transit())
	t.times[Asr] = final(Asr, asr)
	t.times[Maghrib] = final(Maghrib, today.Sunset())
	t.times[Ishaa] = final(Ishaa, ishaa(today, date, night, params))

	// The night ends at tomorrow's Fajr, which needs its own night length.
	nextNight := dayAfter.Sunrise().Sub(tomorrow.Sunset())
	t.times[FajrTomorrow] = final(Fajr, fajr(tomorrow, date.AddDays(1), nextNight, params))

	maghrib := t.times[Maghrib]
	duration := t.times[FajrTomorrow].Sub(maghrib)
	t.middleOfNight = Nearest.Apply(maghrib.Add(wholeSeconds(duration.Seconds() / 2)))
	t.times[Qiyam] = Nearest.Apply(maghrib.Add(wholeSeconds(duration.Seconds() * 2 / 3)))

	for p := Sunrise; p <= FajrTomorrow; p++ {
		if !t.times[p-1].Before(t.times[p]) {
			return nil, fmt.Errorf("%w: %s at %s, %s at %s", ErrUnordered,
				p-1, t.times[p-1].Format(time.RFC3339), p, t.times[p].Format(time.RFC3339))
		}
	}

	return t, nil
}

func newDay(date Date, coordinates astronomy.Coordinates) (*astronomy.SolarTime, error) {
	st, err := astronomy.NewSolarTime(date.Time(), coordinates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSchedule, err)
	}
	return st, nil
}

// fajr returns the unadjusted Fajr of the day described by st: the later of
// the twilight estimate and the high latitude safety bound.
func fajr(st *astronomy.SolarTime, date Date, night time.Duration, params Parameters) time.Time {
	raw, err := fajrEstimate(st, night, params)
	safe := fajrBound(st, date, night, params)
	if errors.Is(err, astronomy.ErrNoCrossing) || raw.Before(safe) {
		return safe
	}
	return raw
}

// fajrEstimate is the twilight angle instant, or a seventh of the night
// before sunrise under the moonsighting rules above highLatitudeValve.
func fajrEstimate(st *astronomy.SolarTime, night time.Duration, params Parameters) (time.Time, error) {
	if params.Moonsighting() && math.Abs(st.Observer().Latitude()) >= highLatitudeValve {
		return st.Sunrise().Add(-wholeSeconds(night.Seconds() / 7)), nil
	}
	return st.TimeForDepression(astronomy.Angle(params.FajrAngle()), true)
}

// fajrBound is the earliest Fajr allowed by the high latitude rule.
func fajrBound(st *astronomy.SolarTime, date Date, night time.Duration, params Parameters) time.Time {
	if params.Moonsighting() {
		return SeasonAdjustedMorningTwilight(st.Observer().Latitude(), date.DayOfYear(), date.Year, st.Sunrise())
	}
	portion, _ := params.NightPortions()
	return st.Sunrise().Add(-wholeSeconds(portion * night.Seconds()))
}

// ishaa returns the unadjusted Ishaa of the day described by st: the earlier
// of the twilight estimate and the high latitude safety bound, or a fixed
// interval after sunset.
func ishaa(st *astronomy.SolarTime, date Date, night time.Duration, params Parameters) time.Time {
	var angle DuskAngle
	switch d := params.Dusk().(type) {
	case DuskInterval:
		return st.Sunset().Add(time.Duration(d) * time.Minute)
	case DuskAngle:
		angle = d
	}

	raw, err := ishaaEstimate(st, angle, night, params)
	safe := ishaaBound(st, date, night, params)
	if errors.Is(err, astronomy.ErrNoCrossing) || raw.After(safe) {
		return safe
	}
	return raw
}

// ishaaEstimate mirrors fajrEstimate after sunset.
func ishaaEstimate(st *astronomy.SolarTime, angle DuskAngle, night time.Duration, params Parameters) (time.Time, error) {
	if params.Moonsighting() && math.Abs(st.Observer().Latitude()) >= highLatitudeValve {
		return st.Sunset().Add(wholeSeconds(night.Seconds() / 7)), nil
	}
	return st.TimeForDepression(astronomy.Angle(float64(angle)), false)
}

// ishaaBound is the latest Ishaa allowed by the high latitude rule.
func ishaaBound(st *astronomy.SolarTime, date Date, night time.Duration, params Parameters) time.Time {
	if params.Moonsighting() {
		return SeasonAdjustedEveningTwilight(st.Observer().Latitude(), date.DayOfYear(), date.Year, st.Sunset(), params.Twilight())
	}
	_, portion := params.NightPortions()
	return st.Sunset().Add(wholeSeconds(portion * night.Seconds()))
}

// wholeSeconds truncates toward zero to a whole number of seconds.
func wholeSeconds(seconds float64) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Time returns the instant of p.
func (t *Times) Time(p Prayer) time.Time {
	if p < Fajr || p > FajrTomorrow {
		return time.Time{}
	}
	return t.times[p]
}

// MiddleOfTheNight is halfway between Maghrib and tomorrow's Fajr.
func (t *Times) MiddleOfTheNight() time.Time { return t.middleOfNight }

// LastThirdOfTheNight is an alias for the Qiyam instant.
func (t *Times) LastThirdOfTheNight() time.Time { return t.times[Qiyam] }

func (t *Times) Coordinates() astronomy.Coordinates { return t.coordinates }
func (t *Times) Date() Date                         { return t.date }
func (t *Times) Parameters() Parameters             { return t.parameters }

// Name returns the English display name of p on the schedule's date.
func (t *Times) Name(p Prayer) string {
	if p == FajrTomorrow {
		return p.Name(t.date.AddDays(1).Time())
	}
	return p.Name(t.date.Time())
}

// In returns the instants of the schedule in loc, in schedule order.
func (t *Times) In(loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(t.times))
	for _, v := range t.times {
		out = append(out, v.In(loc))
	}
	return out
}
