// Package astronomy implements the low-precision solar position model used to
// derive prayer times: ephemeris terms, daily solar events and arbitrary
// depression crossings.
package astronomy

import (
	"math"

	"github.com/soniakeys/unit"
)

// Angle is an angle expressed in degrees.
//
// Trigonometry is delegated to unit.Angle so radians never leak into callers.
type Angle float64

// Deg returns the angle in degrees.
func (a Angle) Deg() float64 { return float64(a) }

// Rad returns the angle in radians.
func (a Angle) Rad() float64 { return a.unit().Rad() }

func (a Angle) Sin() float64 { return a.unit().Sin() }
func (a Angle) Cos() float64 { return a.unit().Cos() }
func (a Angle) Tan() float64 { return a.unit().Tan() }

// Unwound returns the angle normalized to [0, 360).
func (a Angle) Unwound() Angle {
	return Angle(unit.PMod(float64(a), 360))
}

// QuadrantShifted returns the angle normalized to [-180, 180].
func (a Angle) QuadrantShifted() Angle {
	if a >= -180 && a <= 180 {
		return a
	}
	return a - 360*Angle(math.Round(float64(a)/360))
}

func (a Angle) unit() unit.Angle {
	return unit.AngleFromDeg(float64(a))
}

// fromRad converts a radian result from the math package into an Angle.
func fromRad(rad float64) Angle {
	return Angle(unit.Angle(rad).Deg())
}

// normalize wraps v into [0, max).
func normalize(v, max float64) float64 {
	return unit.PMod(v, max)
}
