package prayer

import (
	"errors"
	"fmt"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
)

// ErrIncomplete is returned by Builder.Calculate when a required input is missing.
var ErrIncomplete = errors.New(config.ErrIncomplete)

// Builder assembles the inputs of a schedule. It is a value: every method
// returns an updated copy, so a partially filled Builder can be shared.
type Builder struct {
	date        *Date
	coordinates *astronomy.Coordinates
	parameters  *Parameters
}

// NewBuilder returns an empty Builder.
func NewBuilder() Builder { return Builder{} }

// On sets the date.
func (b Builder) On(d Date) Builder {
	b.date = &d
	return b
}

// For sets the position.
func (b Builder) For(c astronomy.Coordinates) Builder {
	b.coordinates = &c
	return b
}

// With sets the calculation parameters.
func (b Builder) With(p Parameters) Builder {
	b.parameters = &p
	return b
}

// Calculate validates the inputs and computes the schedule. Unlike New it
// never panics: an invalid date is reported as ErrInvalidDate.
func (b Builder) Calculate() (*Times, error) {
	var missing []string
	if b.date == nil {
		missing = append(missing, "date")
	}
	if b.coordinates == nil {
		missing = append(missing, "coordinates")
	}
	if b.parameters == nil {
		missing = append(missing, "parameters")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w (missing %v)", ErrIncomplete, missing)
	}

	if !b.date.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, *b.date)
	}

	return New(*b.date, *b.coordinates, *b.parameters)
}
