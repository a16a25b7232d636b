package prayer

import (
	"math"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
)

// Seasonal twilight correction of the Moonsighting Committee (Khalid Shaukat):
// a piecewise linear fit, over the days elapsed since the winter solstice, of
// the observed twilight duration at the given latitude.

// SeasonAdjustedMorningTwilight returns the earliest acceptable Fajr for the
// day of year doy (1-based) of year.
func SeasonAdjustedMorningTwilight(latitude float64, doy, year int, sunrise time.Time) time.Time {
	lat := math.Abs(latitude)
	a := 75 + 28.65/55.0*lat
	b := 75 + 19.44/55.0*lat
	c := 75 + 32.74/55.0*lat
	d := 75 + 48.10/55.0*lat

	minutes := seasonalCurve(a, b, c, d, DaysSinceSolstice(doy, year, latitude))
	return sunrise.Add(roundedSeconds(minutes * -60))
}

// SeasonAdjustedEveningTwilight returns the latest acceptable Ishaa for the
// day of year doy (1-based) of year under the given twilight variant.
func SeasonAdjustedEveningTwilight(latitude float64, doy, year int, sunset time.Time, twilight Twilight) time.Time {
	lat := math.Abs(latitude)

	var a, b, c, d float64
	switch twilight {
	case TwilightRed:
		a = 62 + 17.40/55.0*lat
		b = 62 - 7.16/55.0*lat
		c = 62 + 5.12/55.0*lat
		d = 62 + 19.44/55.0*lat
	case TwilightWhite:
		a = 75 + 25.60/55.0*lat
		b = 75 + 7.16/55.0*lat
		c = 75 + 36.84/55.0*lat
		d = 75 + 81.84/55.0*lat
	default:
		a = 75 + 25.60/55.0*lat
		b = 75 + 2.05/55.0*lat
		c = 75 - 9.21/55.0*lat
		d = 75 + 6.14/55.0*lat
	}

	minutes := seasonalCurve(a, b, c, d, DaysSinceSolstice(doy, year, latitude))
	return sunset.Add(roundedSeconds(minutes * 60))
}

// DaysSinceSolstice counts days from the local winter solstice: December 21
// in the northern hemisphere, June 21 in the southern one.
func DaysSinceSolstice(doy, year int, latitude float64) int {
	daysInYear := 365
	if julian.LeapYearGregorian(year) {
		daysInYear = 366
	}

	if latitude >= 0 {
		days := doy + 10
		if days >= daysInYear {
			days -= daysInYear
		}
		return days
	}

	southern := 172
	if daysInYear == 366 {
		southern = 173
	}
	days := doy - southern
	if days < 0 {
		days += daysInYear
	}
	return days
}

// seasonalCurve interpolates between the control values a, b, c, d placed at
// the solstices, equinoxes and midpoints of the year.
func seasonalCurve(a, b, c, d float64, days int) float64 {
	x := float64(days)
	switch {
	case days < 91:
		return a + (b-a)/91.0*x
	case days < 137:
		return b + (c-b)/46.0*(x-91)
	case days < 183:
		return c + (d-c)/46.0*(x-137)
	case days < 229:
		return d + (c-d)/46.0*(x-183)
	case days < 275:
		return c + (b-c)/46.0*(x-229)
	default:
		return b + (a-b)/91.0*(x-275)
	}
}

// roundedSeconds rounds half away from zero to a whole number of seconds.
func roundedSeconds(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds)) * time.Second
}
