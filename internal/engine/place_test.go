package engine_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/engine"
)

func TestParseGeo(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"vCard 3", "33.888630;35.495480", 33.888630, 35.495480, false},
		{"vCard 3 spaced", " -33.87 ; 151.21 ", -33.87, 151.21, false},
		{"vCard 4 URI", "geo:21.4225,39.8262", 21.4225, 39.8262, false},
		{"URI upper case", "GEO:21.4225,39.8262", 21.4225, 39.8262, false},
		{"URI with altitude", "geo:59.9138,10.7387,23", 59.9138, 10.7387, false},
		{"URI with params", "geo:1.3521,103.8198;u=35", 1.3521, 103.8198, false},
		{"Empty", "", 0, 0, true},
		{"Single value", "33.88", 0, 0, true},
		{"Words", "north;east", 0, 0, true},
		{"Latitude out of range", "95;10", 0, 0, true},
		{"Longitude out of range", "geo:10,181", 0, 0, true},
		{"Comma in vCard 3", "33.88,35.49", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ParseGeo(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, engine.ErrGeoParse)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, got.Latitude(), 1e-9)
			assert.InDelta(t, tt.lon, got.Longitude(), 1e-9)
		})
	}
}

func TestParseGeo_WrapsCoordinateError(t *testing.T) {
	_, err := engine.ParseGeo("-91;0")
	assert.ErrorIs(t, err, engine.ErrGeoParse)
	assert.ErrorIs(t, err, astronomy.ErrInvalidCoordinates)
}

func TestParseTimeZone(t *testing.T) {
	ref := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input  string
		offset int // seconds east of UTC at ref
	}{
		{"+02:00", 2 * 3600},
		{"+0530", 5*3600 + 30*60},
		{"-05", -5 * 3600},
		{"-03:30", -(3*3600 + 30*60)},
		{"+00:00", 0},
		{"Asia/Beirut", 2 * 3600},
		{"America/New_York", -5 * 3600},
		{"UTC", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := engine.ParseTimeZone(tt.input)
			require.NoError(t, err)
			_, offset := ref.In(loc).Zone()
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestParseTimeZone_Invalid(t *testing.T) {
	for _, input := range []string{"", "  ", "Nowhere/City", "+2", "+15:00", "+02:75", "+ab:cd", "-123456"} {
		t.Run(input, func(t *testing.T) {
			loc, err := engine.ParseTimeZone(input)
			assert.Nil(t, loc)
			assert.ErrorIs(t, err, engine.ErrTimezone)
		})
	}
}

func TestPlace_TimeZone(t *testing.T) {
	assert.Empty(t, engine.Place{}.TimeZone())

	loc, err := engine.ParseTimeZone("Asia/Beirut")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Beirut", engine.Place{Location: loc}.TimeZone())
}
