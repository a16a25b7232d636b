package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// ErrInvalidRequest wraps every rejection of a schedule request.
var ErrInvalidRequest = errors.New(config.ErrRequestInvalid)

// Request is the wire form of a schedule query:
//
//	{"coordinates":{"latitude":33.88,"longitude":35.49},"method":"Egyptian",
//	 "mazhab":"Hanafi","date":{"year":2024,"month":3,"day":15}}
//
// Mazhab defaults to Shafi and Date to today.
type Request struct {
	Coordinates *RequestCoordinates `json:"coordinates"`
	Method      string              `json:"method"`
	Mazhab      string              `json:"mazhab,omitempty"`
	Date        *RequestDate        `json:"date,omitempty"`
}

type RequestCoordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type RequestDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Query is a validated Request.
type Query struct {
	Date        prayer.Date
	Coordinates astronomy.Coordinates
	Parameters  prayer.Parameters
}

// ParseRequest decodes a JSON Request from r and resolves it against clock.
func ParseRequest(r io.Reader, clock Clock) (Query, error) {
	req, err := DecodeRequest(r)
	if err != nil {
		return Query{}, err
	}
	return req.Resolve(clock)
}

// DecodeRequest reads a JSON Request from r without validating it.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(io.LimitReader(r, config.MaxRequestBodySize))
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, config.ErrRequestDecode, err)
	}
	return req, nil
}

// RequestFromValues builds a Request from URL query parameters
// (lat, lon, method, mazhab, date=YYYY-MM-DD).
func RequestFromValues(v url.Values) (Request, error) {
	req := Request{
		Method: v.Get(config.QueryMethod),
		Mazhab: v.Get(config.QueryMadhab),
	}

	if v.Has(config.QueryLat) || v.Has(config.QueryLon) {
		lat, err := strconv.ParseFloat(v.Get(config.QueryLat), 64)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, config.QueryLat, err)
		}
		lon, err := strconv.ParseFloat(v.Get(config.QueryLon), 64)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, config.QueryLon, err)
		}
		req.Coordinates = &RequestCoordinates{Latitude: &lat, Longitude: &lon}
	}

	if s := v.Get(config.QueryDate); s != "" {
		d, err := prayer.ParseDate(s)
		if err != nil {
			return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		req.Date = &RequestDate{Year: d.Year, Month: int(d.Month), Day: d.Day}
	}
	return req, nil
}

// Resolve validates r. Missing coordinates or method wrap
// prayer.ErrIncomplete, out of range values wrap the matching sentinel of
// packages astronomy and prayer; all of them also wrap ErrInvalidRequest.
// A missing date is the current UTC date of clock.
func (r Request) Resolve(clock Clock) (Query, error) {
	var missing []string
	if r.Coordinates == nil || r.Coordinates.Latitude == nil || r.Coordinates.Longitude == nil {
		missing = append(missing, "coordinates")
	}
	if strings.TrimSpace(r.Method) == "" {
		missing = append(missing, "method")
	}
	if len(missing) > 0 {
		return Query{}, fmt.Errorf("%w: %w (missing %v)", ErrInvalidRequest, prayer.ErrIncomplete, missing)
	}

	coords, err := astronomy.NewCoordinates(*r.Coordinates.Latitude, *r.Coordinates.Longitude)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	method, err := prayer.ParseMethod(r.Method)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	params := method.Parameters()

	if r.Mazhab != "" {
		madhab, err := prayer.ParseMadhab(r.Mazhab)
		if err != nil {
			return Query{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		params = params.WithMadhab(madhab)
	}

	date := Today(clock, time.UTC)
	if r.Date != nil {
		date = prayer.NewDate(r.Date.Year, time.Month(r.Date.Month), r.Date.Day)
		if !date.Valid() {
			return Query{}, fmt.Errorf("%w: %w: %s", ErrInvalidRequest, prayer.ErrInvalidDate, date)
		}
	}

	return Query{Date: date, Coordinates: coords, Parameters: params}, nil
}

// Calculate computes the schedule of q.
func (q Query) Calculate() (*prayer.Times, error) {
	return prayer.NewBuilder().On(q.Date).For(q.Coordinates).With(q.Parameters).Calculate()
}

// ResolveParameters builds the parameters of a named method, overriding its
// madhab and high latitude rule when those are not empty.
func ResolveParameters(method, madhab, rule string) (prayer.Parameters, error) {
	m, err := prayer.ParseMethod(method)
	if err != nil {
		return prayer.Parameters{}, err
	}
	params := m.Parameters()

	if madhab != "" {
		md, err := prayer.ParseMadhab(madhab)
		if err != nil {
			return prayer.Parameters{}, err
		}
		params = params.WithMadhab(md)
	}
	if rule != "" {
		r, err := prayer.ParseHighLatitudeRule(rule)
		if err != nil {
			return prayer.Parameters{}, err
		}
		params = params.WithHighLatitudeRule(r)
	}
	return params, nil
}
