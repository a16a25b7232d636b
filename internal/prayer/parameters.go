package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// Madhab selects the shadow length used for Asr.
type Madhab int

const (
	// Shafi covers the Shafi'i, Maliki and Hanbali schools: shadow length 1.
	Shafi Madhab = iota
	// Hanafi uses shadow length 2, giving a later Asr.
	Hanafi
)

// ShadowLength returns the shadow multiplier for Asr.
func (m Madhab) ShadowLength() float64 {
	if m == Hanafi {
		return 2
	}
	return 1
}

func (m Madhab) String() string {
	if m == Hanafi {
		return "Hanafi"
	}
	return "Shafi"
}

// ParseMadhab accepts "Shafi" or "Hanafi", case-insensitive.
func ParseMadhab(s string) (Madhab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shafi", "shafii":
		return Shafi, nil
	case "hanafi":
		return Hanafi, nil
	}
	return Shafi, fmt.Errorf("%s: %q", config.ErrUnknownMadhab, s)
}

// HighLatitudeRule bounds Fajr and Ishaa by a portion of the night.
type HighLatitudeRule int

const (
	MiddleOfTheNight HighLatitudeRule = iota
	SeventhOfTheNight
	TwilightAngle
)

func (r HighLatitudeRule) String() string {
	switch r {
	case SeventhOfTheNight:
		return "SeventhOfTheNight"
	case TwilightAngle:
		return "TwilightAngle"
	default:
		return "MiddleOfTheNight"
	}
}

// ParseHighLatitudeRule is the inverse of HighLatitudeRule.String, case-insensitive.
func ParseHighLatitudeRule(s string) (HighLatitudeRule, error) {
	for _, r := range []HighLatitudeRule{MiddleOfTheNight, SeventhOfTheNight, TwilightAngle} {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return MiddleOfTheNight, fmt.Errorf("%s: %q", config.ErrUnknownRule, s)
}

// Twilight selects the evening curve of the moonsighting committee correction.
type Twilight int

const (
	TwilightGeneral Twilight = iota
	// TwilightRed follows the disappearance of the red glow (shafaq ahmer).
	TwilightRed
	// TwilightWhite follows the disappearance of the white glow (shafaq abyad).
	TwilightWhite
)

func (t Twilight) String() string {
	switch t {
	case TwilightRed:
		return "Red"
	case TwilightWhite:
		return "White"
	default:
		return "General"
	}
}

// ParseTwilight is the inverse of Twilight.String, case-insensitive.
func ParseTwilight(s string) (Twilight, error) {
	for _, t := range []Twilight{TwilightGeneral, TwilightRed, TwilightWhite} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TwilightGeneral, fmt.Errorf("%s: %q", config.ErrUnknownTwilight, s)
}

// Dusk specifies how Ishaa is derived. It is either a DuskAngle or a DuskInterval.
type Dusk interface {
	dusk()
}

// DuskAngle places Ishaa where the sun is this many degrees below the horizon.
type DuskAngle float64

// DuskInterval places Ishaa a fixed number of minutes after Maghrib.
type DuskInterval int

func (DuskAngle) dusk()    {}
func (DuskInterval) dusk() {}

// TimeAdjustment holds per-prayer offsets in minutes.
type TimeAdjustment struct {
	Fajr    int `json:"fajr"`
	Sunrise int `json:"sunrise"`
	Dhuhr   int `json:"dhuhr"`
	Asr     int `json:"asr"`
	Maghrib int `json:"maghrib"`
	Ishaa   int `json:"ishaa"`
}

// For returns the offset for p. Qiyam and FajrTomorrow have none of their own.
func (a TimeAdjustment) For(p Prayer) int {
	switch p {
	case Fajr:
		return a.Fajr
	case Sunrise:
		return a.Sunrise
	case Dhuhr:
		return a.Dhuhr
	case Asr:
		return a.Asr
	case Maghrib:
		return a.Maghrib
	case Ishaa:
		return a.Ishaa
	}
	return 0
}

// Add returns the component-wise sum of a and b.
func (a TimeAdjustment) Add(b TimeAdjustment) TimeAdjustment {
	return TimeAdjustment{
		Fajr:    a.Fajr + b.Fajr,
		Sunrise: a.Sunrise + b.Sunrise,
		Dhuhr:   a.Dhuhr + b.Dhuhr,
		Asr:     a.Asr + b.Asr,
		Maghrib: a.Maghrib + b.Maghrib,
		Ishaa:   a.Ishaa + b.Ishaa,
	}
}

// Parameters configures a schedule calculation. It is a value type: the With
// methods return modified copies and never alter the receiver.
type Parameters struct {
	method            Method
	fajrAngle         float64
	dusk              Dusk
	madhab            Madhab
	highLatitudeRule  HighLatitudeRule
	rounding          Rounding
	twilight          Twilight
	moonsighting      bool
	adjustments       TimeAdjustment
	methodAdjustments TimeAdjustment
}

// NewParameters returns custom parameters tagged with method Other and the
// defaults Shafi, MiddleOfTheNight, Nearest and TwilightGeneral. A nil dusk
// is treated as DuskAngle(0).
func NewParameters(fajrAngle float64, dusk Dusk) Parameters {
	if dusk == nil {
		dusk = DuskAngle(0)
	}
	return Parameters{
		method:           Other,
		fajrAngle:        fajrAngle,
		dusk:             dusk,
		madhab:           Shafi,
		highLatitudeRule: MiddleOfTheNight,
		rounding:         Nearest,
		twilight:         TwilightGeneral,
	}
}

func (p Parameters) Method() Method                     { return p.method }
func (p Parameters) FajrAngle() float64                 { return p.fajrAngle }
func (p Parameters) Madhab() Madhab                     { return p.madhab }
func (p Parameters) HighLatitudeRule() HighLatitudeRule { return p.highLatitudeRule }
func (p Parameters) Rounding() Rounding                 { return p.rounding }
func (p Parameters) Twilight() Twilight                 { return p.twilight }
func (p Parameters) Adjustments() TimeAdjustment        { return p.adjustments }
func (p Parameters) MethodAdjustments() TimeAdjustment  { return p.methodAdjustments }

// Moonsighting reports whether the moonsighting committee rules apply.
func (p Parameters) Moonsighting() bool { return p.moonsighting }

// Dusk returns the Ishaa setting, never nil.
func (p Parameters) Dusk() Dusk {
	if p.dusk == nil {
		return DuskAngle(0)
	}
	return p.dusk
}

func (p Parameters) WithMethod(m Method) Parameters {
	p.method = m
	return p
}

func (p Parameters) WithFajrAngle(angle float64) Parameters {
	p.fajrAngle = angle
	return p
}

func (p Parameters) WithDusk(d Dusk) Parameters {
	if d == nil {
		d = DuskAngle(0)
	}
	p.dusk = d
	return p
}

func (p Parameters) WithMadhab(m Madhab) Parameters {
	p.madhab = m
	return p
}

func (p Parameters) WithHighLatitudeRule(r HighLatitudeRule) Parameters {
	p.highLatitudeRule = r
	return p
}

func (p Parameters) WithRounding(r Rounding) Parameters {
	p.rounding = r
	return p
}

func (p Parameters) WithTwilight(t Twilight) Parameters {
	p.twilight = t
	return p
}

func (p Parameters) WithMoonsighting(enabled bool) Parameters {
	p.moonsighting = enabled
	return p
}

// WithAdjustments sets the user offsets. They are added to the method offsets.
func (p Parameters) WithAdjustments(a TimeAdjustment) Parameters {
	p.adjustments = a
	return p
}

func (p Parameters) WithMethodAdjustments(a TimeAdjustment) Parameters {
	p.methodAdjustments = a
	return p
}

// NightPortions returns the fractions of the night that bound Fajr and Ishaa
// under the configured high latitude rule.
func (p Parameters) NightPortions() (fajr, ishaa float64) {
	switch p.highLatitudeRule {
	case SeventhOfTheNight:
		return 1.0 / 7.0, 1.0 / 7.0
	case TwilightAngle:
		ishaaAngle := 0.0
		if a, ok := p.Dusk().(DuskAngle); ok {
			ishaaAngle = float64(a)
		}
		return p.fajrAngle / 60, ishaaAngle / 60
	default:
		return 1.0 / 2.0, 1.0 / 2.0
	}
}

// TimeAdjustment returns the total offset applied to p: user plus method minutes.
func (p Parameters) TimeAdjustment(pr Prayer) time.Duration {
	minutes := p.adjustments.Add(p.methodAdjustments).For(pr)
	return time.Duration(minutes) * time.Minute
}
