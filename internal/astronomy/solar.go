package astronomy

import (
	"fmt"
	"math"
	"time"
)

// SunriseAltitude is the standard altitude of the sun's center at sunrise and
// sunset: 50 arc minutes below the horizon, combining refraction and the solar
// semi-diameter.
const SunriseAltitude Angle = -50.0 / 60.0

// SolarTime holds the daily solar events for one civil date at one position.
// All instants are in UTC. A SolarTime is immutable.
type SolarTime struct {
	date        time.Time
	observer    Coordinates
	solar       solarCoordinates
	prevSolar   solarCoordinates
	nextSolar   solarCoordinates
	approxTrans float64

	transit time.Time
	sunrise time.Time
	sunset  time.Time
}

// NewSolarTime computes transit, sunrise and sunset for the calendar date of
// day (its year, month and day in its own location) at the given position.
// It returns ErrNoCrossing when the sun does not rise or set that day.
func NewSolarTime(day time.Time, observer Coordinates) (*SolarTime, error) {
	y, m, d := day.Date()
	jd := JulianDay(y, m, d)

	st := &SolarTime{
		date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		observer:  observer,
		solar:     newSolarCoordinates(jd),
		prevSolar: newSolarCoordinates(jd - 1),
		nextSolar: newSolarCoordinates(jd + 1),
	}

	lw := Angle(-observer.longitude)
	st.approxTrans = approximateTransit(lw, st.solar.apparentSiderealTime, st.solar.rightAscension)
	st.transit = st.timeFromHours(st.correctedTransit(lw))

	rise, ok := st.correctedHourAngle(SunriseAltitude, false)
	if !ok {
		return nil, fmt.Errorf("%w: sunrise on %s at %s", ErrNoCrossing, st.date.Format(time.DateOnly), observer)
	}
	set, ok := st.correctedHourAngle(SunriseAltitude, true)
	if !ok {
		return nil, fmt.Errorf("%w: sunset on %s at %s", ErrNoCrossing, st.date.Format(time.DateOnly), observer)
	}
	st.sunrise = st.timeFromHours(rise)
	st.sunset = st.timeFromHours(set)

	return st, nil
}

// Date returns 0h UTC of the calendar date this SolarTime was computed for.
func (st *SolarTime) Date() time.Time { return st.date }

// Observer returns the position this SolarTime was computed for.
func (st *SolarTime) Observer() Coordinates { return st.observer }

// Transit is the instant the sun crosses the local meridian.
func (st *SolarTime) Transit() time.Time { return st.transit }

func (st *SolarTime) Sunrise() time.Time { return st.sunrise }
func (st *SolarTime) Sunset() time.Time  { return st.sunset }

// Declination returns the sun's declination at 0h UT of the date.
func (st *SolarTime) Declination() Angle { return st.solar.declination }

// TimeForDepression returns the instant the sun's center is the given number
// of degrees below the horizon, before or after transit.
func (st *SolarTime) TimeForDepression(depression Angle, beforeTransit bool) (time.Time, error) {
	hours, ok := st.correctedHourAngle(-depression, !beforeTransit)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: depression %.2f on %s at %s",
			ErrNoCrossing, depression.Deg(), st.date.Format(time.DateOnly), st.observer)
	}
	return st.timeFromHours(hours), nil
}

// Afternoon returns the instant, after transit, at which the shadow of an
// object equals shadowLength times its height plus its shadow at noon.
func (st *SolarTime) Afternoon(shadowLength float64) (time.Time, error) {
	tangent := Angle(math.Abs(st.observer.latitude - st.solar.declination.Deg()))
	inverse := shadowLength + tangent.Tan()
	altitude := fromRad(math.Atan(1 / inverse))

	hours, ok := st.correctedHourAngle(altitude, true)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: shadow length %.1f on %s at %s",
			ErrNoCrossing, shadowLength, st.date.Format(time.DateOnly), st.observer)
	}
	return st.timeFromHours(hours), nil
}

// approximateTransit is Meeus 15.2, as a fraction of a day.
func approximateTransit(lw, siderealTime, rightAscension Angle) float64 {
	return normalize((rightAscension+lw-siderealTime).Deg()/360, 1)
}

// correctedTransit refines the approximate transit using the interpolated
// right ascension (Meeus ch. 15), in hours.
func (st *SolarTime) correctedTransit(lw Angle) float64 {
	m0 := st.approxTrans
	theta := (st.solar.apparentSiderealTime + Angle(360.985647*m0)).Unwound()
	alpha := interpolateAngles(st.solar.rightAscension, st.prevSolar.rightAscension, st.nextSolar.rightAscension, m0).Unwound()
	h := (theta - lw - alpha).QuadrantShifted()
	dm := h.Deg() / -360
	return (m0 + dm) * 24
}

// correctedHourAngle returns the hours after 0h UTC at which the sun reaches
// altitude h0, refined once with interpolated coordinates (Meeus ch. 15).
// ok is false when the sun never reaches h0 that day.
func (st *SolarTime) correctedHourAngle(h0 Angle, afterTransit bool) (hours float64, ok bool) {
	lw := Angle(-st.observer.longitude)
	lat := Angle(st.observer.latitude)
	dec := st.solar.declination

	cosH0 := (h0.Sin() - lat.Sin()*dec.Sin()) / (lat.Cos() * dec.Cos())
	if math.IsNaN(cosH0) || cosH0 < -1 || cosH0 > 1 {
		return 0, false
	}
	hourAngle := fromRad(math.Acos(cosH0))

	m := st.approxTrans - hourAngle.Deg()/360
	if afterTransit {
		m = st.approxTrans + hourAngle.Deg()/360
	}

	theta := (st.solar.apparentSiderealTime + Angle(360.985647*m)).Unwound()
	alpha := interpolateAngles(st.solar.rightAscension, st.prevSolar.rightAscension, st.nextSolar.rightAscension, m).Unwound()
	delta := Angle(interpolate(st.solar.declination.Deg(), st.prevSolar.declination.Deg(), st.nextSolar.declination.Deg(), m))
	localHour := theta - lw - alpha
	h := altitudeOfCelestialBody(lat, delta, localHour)

	dm := (h - h0).Deg() / (360 * delta.Cos() * lat.Cos() * localHour.Sin())
	return (m + dm) * 24, true
}

// altitudeOfCelestialBody is Meeus 13.6.
func altitudeOfCelestialBody(phi, delta, localHourAngle Angle) Angle {
	return fromRad(math.Asin(phi.Sin()*delta.Sin() + phi.Cos()*delta.Cos()*localHourAngle.Cos()))
}

// interpolate is Meeus 3.3.
func interpolate(y2, y1, y3, n float64) float64 {
	a := y2 - y1
	b := y3 - y2
	c := b - a
	return y2 + (n/2)*(a+b+n*c)
}

// interpolateAngles is interpolate with the differences unwound so that a
// wrap through 0/360 is not mistaken for a full revolution.
func interpolateAngles(y2, y1, y3 Angle, n float64) Angle {
	a := (y2 - y1).Unwound().Deg()
	b := (y3 - y2).Unwound().Deg()
	c := b - a
	return y2 + Angle((n/2)*(a+b+n*c))
}

// timeFromHours converts fractional hours after 0h UTC into an instant,
// truncated to the whole second.
func (st *SolarTime) timeFromHours(value float64) time.Time {
	hours := math.Floor(value)
	minutes := math.Floor((value - hours) * 60)
	seconds := math.Floor((value - (hours + minutes/60)) * 3600)
	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	return st.date.Add(offset)
}
