package engine

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
)

// ErrGeoParse reports a GEO property that is not a usable position.
var ErrGeoParse = errors.New(config.ErrGeoParse)

// ErrTimezone reports a TZ value that is neither an IANA name nor a UTC offset.
var ErrTimezone = errors.New(config.ErrTimezone)

// Place is one entry of the address book a feed is generated for.
type Place struct {
	// UID is a stable hash identifying the place across refreshes.
	UID string

	// Name is the formatted name of the card (FN), or N as a fallback.
	Name string

	Coordinates astronomy.Coordinates

	// Location is the time zone of the TZ property, nil when absent or unusable.
	Location *time.Location
}

// TimeZone returns the name of the place's time zone, or "" when it has none.
func (p Place) TimeZone() string {
	if p.Location == nil {
		return ""
	}
	return p.Location.String()
}

// placeFromCard extracts a Place from a vCard. Cards without a GEO property
// are rejected with ErrGeoParse. An unusable TZ is reported through tzErr
// but does not reject the card.
func placeFromCard(card vcard.Card) (place Place, tzErr error, err error) {
	geo := card.Get(config.VCardGEO)
	if geo == nil || geo.Value == "" {
		return Place{}, nil, fmt.Errorf("%w: missing", ErrGeoParse)
	}
	coords, err := ParseGeo(geo.Value)
	if err != nil {
		return Place{}, nil, err
	}

	name := config.FallbackName
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		name = fn.Value
	} else if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		name = n.Value
	}

	key := name
	if uid := card.Get(config.VCardUID); uid != nil && uid.Value != "" {
		key = uid.Value
	}
	input := fmt.Sprintf(config.FormatHashInput, key, coords, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))

	place = Place{
		UID:         fmt.Sprintf("%x", hash[:config.UIDHashLength]),
		Name:        name,
		Coordinates: coords,
	}

	if tz := card.Get(config.VCardTZ); tz != nil && tz.Value != "" {
		place.Location, tzErr = ParseTimeZone(tz.Value)
	}
	return place, tzErr, nil
}

// ParseGeo reads a vCard GEO value: the vCard 4 URI form "geo:lat,lon" (URI
// parameters after ';' are ignored) or the vCard 3 form "lat;lon".
func ParseGeo(value string) (astronomy.Coordinates, error) {
	value = strings.TrimSpace(value)

	var parts []string
	if rest, ok := strings.CutPrefix(strings.ToLower(value), config.GeoURIPrefix); ok {
		rest, _, _ = strings.Cut(rest, ";")
		parts = strings.Split(rest, ",")
		if len(parts) == 3 {
			// geo: URIs may carry an altitude.
			parts = parts[:2]
		}
	} else {
		parts = strings.Split(value, ";")
	}
	if len(parts) != 2 {
		return astronomy.Coordinates{}, fmt.Errorf("%w: %q", ErrGeoParse, value)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return astronomy.Coordinates{}, fmt.Errorf("%w: %q", ErrGeoParse, value)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return astronomy.Coordinates{}, fmt.Errorf("%w: %q", ErrGeoParse, value)
	}

	coords, err := astronomy.NewCoordinates(lat, lon)
	if err != nil {
		return astronomy.Coordinates{}, fmt.Errorf("%w: %w", ErrGeoParse, err)
	}
	return coords, nil
}

// ParseTimeZone accepts an IANA zone name ("Asia/Beirut") or a UTC offset
// ("+03:00", "-0500", "+05").
func ParseTimeZone(value string) (*time.Location, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty", ErrTimezone)
	}

	if value[0] == '+' || value[0] == '-' {
		if offset, ok := parseOffset(value); ok {
			return time.FixedZone(value, offset), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrTimezone, value)
	}

	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTimezone, value)
	}
	return loc, nil
}

// parseOffset converts ±HH, ±HHMM or ±HH:MM to seconds east of UTC.
func parseOffset(value string) (int, bool) {
	sign := 1
	if value[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(value[1:], ":", "")

	var hh, mm int
	var err error
	switch len(digits) {
	case 2:
		hh, err = strconv.Atoi(digits)
	case 4:
		hh, err = strconv.Atoi(digits[:2])
		if err == nil {
			mm, err = strconv.Atoi(digits[2:])
		}
	default:
		return 0, false
	}
	if err != nil || hh > 14 || mm > 59 {
		return 0, false
	}
	return sign * (hh*3600 + mm*60), true
}
