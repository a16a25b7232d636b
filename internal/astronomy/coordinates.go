package astronomy

import (
	"errors"
	"fmt"
	"math"

	"github.com/ibad-al-rahman/azan/internal/config"
)

var (
	// ErrInvalidCoordinates is returned when a latitude or longitude is out of range.
	ErrInvalidCoordinates = errors.New(config.ErrInvalidCoordinates)

	// ErrNoCrossing is returned when the sun never reaches the requested altitude
	// on the given day, as happens with polar day or polar night.
	ErrNoCrossing = errors.New(config.ErrNoCrossing)
)

// Coordinates is an observer position on Earth. The zero value is the
// intersection of the equator and the prime meridian.
type Coordinates struct {
	latitude  float64
	longitude float64
}

// NewCoordinates validates and returns an observer position.
func NewCoordinates(latitude, longitude float64) (Coordinates, error) {
	if latitude < -90 || latitude > 90 || math.IsNaN(latitude) {
		return Coordinates{}, fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, latitude)
	}
	if longitude < -180 || longitude > 180 || math.IsNaN(longitude) {
		return Coordinates{}, fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, longitude)
	}
	return Coordinates{latitude: latitude, longitude: longitude}, nil
}

// MustCoordinates is like NewCoordinates but panics on invalid input.
// It is intended for literals in tests and presets.
func MustCoordinates(latitude, longitude float64) Coordinates {
	c, err := NewCoordinates(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coordinates) Latitude() float64  { return c.latitude }
func (c Coordinates) Longitude() float64 { return c.longitude }

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.latitude, c.longitude)
}
