package prayer_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

func TestPrayer_Names(t *testing.T) {
	friday := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)

	assert.Equal(t, "Jumua", prayer.Dhuhr.Name(friday))
	assert.Equal(t, "Dhuhr", prayer.Dhuhr.Name(saturday))
	assert.Equal(t, "Fajr", prayer.FajrTomorrow.Name(friday))
	assert.Equal(t, "FajrTomorrow", prayer.FajrTomorrow.String())
	assert.Equal(t, "Prayer(-1)", prayer.Prayer(-1).String())

	assert.Equal(t, config.TKeyJumua, prayer.Dhuhr.MessageID(friday))
	assert.Equal(t, config.TKeyDhuhr, prayer.Dhuhr.MessageID(saturday))
	assert.Equal(t, config.TKeyFajr, prayer.FajrTomorrow.MessageID(saturday))
	assert.Equal(t, config.TKeyQiyam, prayer.Qiyam.MessageID(saturday))
}

func TestPrayer_Text(t *testing.T) {
	for _, p := range prayer.All() {
		got, err := prayer.ParsePrayer(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := prayer.ParsePrayer("ishaa")
	require.NoError(t, err)
	assert.Equal(t, prayer.Ishaa, got)

	_, err = prayer.ParsePrayer("Witr")
	assert.Error(t, err)

	b, err := json.Marshal(map[prayer.Prayer]int{prayer.Asr: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Asr":1}`, string(b))

	var decoded struct {
		Next prayer.Prayer `json:"next"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"next":"Maghrib"}`), &decoded))
	assert.Equal(t, prayer.Maghrib, decoded.Next)
	assert.Error(t, json.Unmarshal([]byte(`{"next":"Nope"}`), &decoded))
}

func TestDate(t *testing.T) {
	tests := []struct {
		date  prayer.Date
		valid bool
	}{
		{prayer.NewDate(2016, time.February, 29), true},
		{prayer.NewDate(2015, time.February, 29), false},
		{prayer.NewDate(2024, time.April, 31), false},
		{prayer.NewDate(2024, time.Month(13), 1), false},
		{prayer.NewDate(0, time.January, 1), false},
		{prayer.NewDate(2024, time.December, 31), true},
	}
	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.date.Valid())
		})
	}

	d, err := prayer.ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, prayer.NewDate(2024, time.March, 15), d)
	assert.Equal(t, time.Friday, d.Weekday())
	assert.Equal(t, 75, d.DayOfYear())
	assert.Equal(t, prayer.NewDate(2024, time.March, 1), prayer.NewDate(2024, time.February, 28).AddDays(2))
	assert.Equal(t, prayer.NewDate(2023, time.December, 31), prayer.NewDate(2024, time.January, 1).AddDays(-1))

	_, err = prayer.ParseDate("2024-02-30")
	assert.ErrorIs(t, err, prayer.ErrInvalidDate)

	// The date is read in the location of the instant.
	late := time.Date(2024, time.March, 15, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, prayer.NewDate(2024, time.March, 15), prayer.DateOf(late))
}

func TestBuilder(t *testing.T) {
	date := prayer.NewDate(2015, time.July, 12)
	params := prayer.NorthAmerica.Parameters()

	t.Run("Complete", func(t *testing.T) {
		got, err := prayer.NewBuilder().On(date).For(raleigh).With(params).Calculate()
		require.NoError(t, err)
		want := mustTimes(t, date, raleigh, params)
		assert.Equal(t, want, got)
	})

	t.Run("Missing inputs", func(t *testing.T) {
		partial := prayer.NewBuilder().On(date)
		_, err := partial.Calculate()
		assert.ErrorIs(t, err, prayer.ErrIncomplete)
		assert.Contains(t, err.Error(), "coordinates")
		assert.Contains(t, err.Error(), "parameters")

		_, err = partial.For(raleigh).Calculate()
		assert.ErrorIs(t, err, prayer.ErrIncomplete)

		_, err = prayer.NewBuilder().Calculate()
		assert.ErrorIs(t, err, prayer.ErrIncomplete)
	})

	t.Run("Invalid date", func(t *testing.T) {
		_, err := prayer.NewBuilder().
			On(prayer.NewDate(2015, time.February, 29)).
			For(raleigh).
			With(params).
			Calculate()
		assert.ErrorIs(t, err, prayer.ErrInvalidDate)
	})

	t.Run("Polar", func(t *testing.T) {
		_, err := prayer.NewBuilder().On(prayer.NewDate(2016, time.June, 21)).For(tromso).With(params).Calculate()
		assert.Error(t, err)
	})
}
