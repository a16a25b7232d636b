package astronomy

import (
	"math"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
)

// j2000 is the Julian day of the J2000.0 epoch.
const j2000 = 2451545.0

// JulianDay returns the Julian day at 0h UT of the given civil date.
func JulianDay(year int, month time.Month, day int) float64 {
	return julian.CalendarGregorianToJD(year, int(month), float64(day))
}

// JulianCentury returns the Julian centuries elapsed since J2000.0.
func JulianCentury(jd float64) float64 {
	return (jd - j2000) / 36525
}

// MeanSolarLongitude is the geometric mean longitude of the sun (Meeus 25.2).
func MeanSolarLongitude(t float64) Angle {
	return Angle(280.4664567 + 36000.76983*t + 0.0003032*t*t).Unwound()
}

// MeanLunarLongitude is the mean longitude of the moon (Meeus ch. 22).
func MeanLunarLongitude(t float64) Angle {
	return Angle(218.3165 + 481267.8813*t).Unwound()
}

// AscendingLunarNodeLongitude is the longitude of the moon's ascending node (Meeus ch. 22).
func AscendingLunarNodeLongitude(t float64) Angle {
	return Angle(125.04452 - 1934.136261*t + 0.0020708*t*t + t*t*t/450000).Unwound()
}

// MeanSolarAnomaly is the mean anomaly of the sun (Meeus 25.3).
func MeanSolarAnomaly(t float64) Angle {
	return Angle(357.52911 + 35999.05029*t - 0.0001537*t*t).Unwound()
}

// SolarEquationOfTheCenter returns the sun's equation of the center (Meeus ch. 25).
func SolarEquationOfTheCenter(t float64, m Angle) Angle {
	return Angle((1.914602-0.004817*t-0.000014*t*t)*m.Sin() +
		(0.019993-0.000101*t)*(2*m).Sin() +
		0.000289*(3*m).Sin())
}

// ApparentSolarLongitude corrects the true longitude for nutation and aberration.
func ApparentSolarLongitude(t float64, l0 Angle) Angle {
	longitude := l0 + SolarEquationOfTheCenter(t, MeanSolarAnomaly(t))
	omega := Angle(125.04 - 1934.136*t)
	return (longitude - 0.00569 - 0.00478*Angle(omega.Sin())).Unwound()
}

// MeanObliquityOfTheEcliptic is Meeus 22.2.
func MeanObliquityOfTheEcliptic(t float64) Angle {
	return Angle(23.439291 - 0.013004167*t - 0.0000001639*t*t + 0.0000005036*t*t*t)
}

// ApparentObliquityOfTheEcliptic is Meeus 25.8.
func ApparentObliquityOfTheEcliptic(t float64, e0 Angle) Angle {
	omega := Angle(125.04 - 1934.136*t)
	return e0 + 0.00256*Angle(omega.Cos())
}

// MeanSiderealTime is the mean sidereal time at Greenwich (Meeus 12.4).
func MeanSiderealTime(t float64) Angle {
	jd := t*36525 + j2000
	return Angle(280.46061837 + 360.98564736629*(jd-j2000) + 0.000387933*t*t - t*t*t/38710000).Unwound()
}

// NutationInLongitude returns Δψ in degrees (Meeus ch. 22, low precision).
func NutationInLongitude(l0, lp, omega Angle) float64 {
	return (-17.2/3600)*omega.Sin() - (1.32/3600)*(2*l0).Sin() -
		(0.23/3600)*(2*lp).Sin() + (0.21/3600)*(2*omega).Sin()
}

// NutationInObliquity returns Δε in degrees (Meeus ch. 22, low precision).
func NutationInObliquity(l0, lp, omega Angle) float64 {
	return (9.2/3600)*omega.Cos() + (0.57/3600)*(2*l0).Cos() +
		(0.1/3600)*(2*lp).Cos() - (0.09/3600)*(2*omega).Cos()
}

// solarCoordinates is the sun's equatorial position at 0h UT of a given Julian day.
type solarCoordinates struct {
	declination          Angle
	rightAscension       Angle
	apparentSiderealTime Angle
}

func newSolarCoordinates(jd float64) solarCoordinates {
	t := JulianCentury(jd)
	l0 := MeanSolarLongitude(t)
	lp := MeanLunarLongitude(t)
	omega := AscendingLunarNodeLongitude(t)
	lambda := ApparentSolarLongitude(t, l0)
	theta0 := MeanSiderealTime(t)
	dpsi := NutationInLongitude(l0, lp, omega)
	deps := NutationInObliquity(l0, lp, omega)
	e0 := MeanObliquityOfTheEcliptic(t)
	eapp := ApparentObliquityOfTheEcliptic(t, e0)

	return solarCoordinates{
		// Meeus 25.7
		declination: fromRad(math.Asin(eapp.Sin() * lambda.Sin())),
		// Meeus 25.6
		rightAscension: fromRad(math.Atan2(eapp.Cos()*lambda.Sin(), lambda.Cos())).Unwound(),
		// Meeus ch. 12
		apparentSiderealTime: theta0 + Angle(dpsi*(e0+Angle(deps)).Cos()),
	}
}
