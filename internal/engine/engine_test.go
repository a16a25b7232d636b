package engine_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockFetcher simulates the network layer.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error) {
	args := m.Called(ctx, url, user, pass)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// MockRecorder captures instrumentation calls.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSync(result string, d time.Duration) { m.Called(result, d) }
func (m *MockRecorder) RecordFeed(places, events int)              { m.Called(places, events) }
func (m *MockRecorder) RecordSkippedDay(reason string)             { m.Called(reason) }
func (m *MockRecorder) RecordRequest(route string, status int)     { m.Called(route, status) }
func (m *MockRecorder) RecordRateLimited(route string)             { m.Called(route) }

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

const beirutCard = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Beirut\r\nGEO:33.888630;35.495480\r\nTZ:+02:00\r\nEND:VCARD\r\n"

// 2024-03-15 is a Friday.
var fridayNoon = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func webGenerator(content string, now time.Time) (*engine.Generator, *MockFetcher) {
	f := new(MockFetcher)
	f.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(io.NopCloser(strings.NewReader(content)), nil)
	return &engine.Generator{Clock: MockClock{CurrentTime: now}, Fetcher: f}, f
}

func webConfig(days int) engine.SyncConfig {
	return engine.SyncConfig{
		Mode:       config.SourceModeWeb,
		WebURL:     "http://test.local/places.vcf",
		Parameters: prayer.Egyptian.Parameters(),
		Days:       days,
	}
}

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

func TestRunSync_Local_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.vcf")
	require.NoError(t, os.WriteFile(path, []byte(beirutCard), config.FilePermUserRW))

	gen := &engine.Generator{Clock: MockClock{CurrentTime: fridayNoon}}
	ics, places, err := gen.RunSync(context.Background(), engine.SyncConfig{
		Mode:       config.SourceModeLocal,
		LocalPath:  path,
		Parameters: prayer.Egyptian.Parameters(),
		Days:       1,
	})
	require.NoError(t, err)

	require.Len(t, places, 1)
	assert.Equal(t, "Beirut", places[0].Name)
	assert.Equal(t, "+02:00", places[0].TimeZone())
	assert.InDelta(t, 33.888630, places[0].Coordinates.Latitude(), 1e-9)

	icsStr := string(ics)
	assert.Contains(t, icsStr, "BEGIN:VCALENDAR")
	// Yesterday and today, seven events each.
	assert.Equal(t, 14, strings.Count(icsStr, "BEGIN:VEVENT"))

	assert.Contains(t, icsStr, "DTSTART:20240315T021900Z", "Fajr")
	assert.Contains(t, icsStr, "DTEND:20240315T023400Z", "Fajr lasts the configured duration")
	assert.Contains(t, icsStr, "DTSTART:20240315T094900Z", "Dhuhr")
	assert.Contains(t, icsStr, "SUMMARY:Jumua - Beirut", "Dhuhr is Jumua on Fridays")
	assert.Contains(t, icsStr, "SUMMARY:Dhuhr - Beirut", "Thursday's Dhuhr")
	assert.Contains(t, icsStr, "DTSTART:20240315T224600Z", "Qiyam")
	assert.Contains(t, icsStr, "LOCATION:Beirut")
	assert.Contains(t, icsStr, "GEO:33.888630;35.495480")
	assert.Contains(t, icsStr, "-2024-03-15-Asr@"+config.ICalDomain)
	assert.Contains(t, icsStr, "-2024-03-14-Asr@"+config.ICalDomain)
	assert.NotContains(t, icsStr, "FajrTomorrow")
}

func TestRunSync_StableUIDs(t *testing.T) {
	gen, _ := webGenerator(beirutCard, fridayNoon)
	first, places, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)

	gen2, _ := webGenerator(beirutCard, fridayNoon.Add(3*time.Hour))
	second, places2, err := gen2.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)

	assert.Equal(t, places[0].UID, places2[0].UID)
	uids := func(ics []byte) []string {
		var out []string
		for _, line := range strings.Split(string(ics), "\r\n") {
			if strings.HasPrefix(line, config.PropUID+":") {
				out = append(out, line)
			}
		}
		return out
	}
	assert.Equal(t, uids(first), uids(second))
}

func TestRunSync_Localized(t *testing.T) {
	gen, _ := webGenerator(beirutCard, fridayNoon)
	gen.CalendarName = "Horaires"
	gen.FormatSummary = func(p prayer.Prayer, ref time.Time, place string) string {
		return "[" + p.Name(ref) + "] " + place
	}

	ics, _, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Contains(t, icsStr, "X-WR-CALNAME:Horaires")
	assert.Contains(t, icsStr, "SUMMARY:[Jumua] Beirut")
}

func TestRunSync_DaysWindow(t *testing.T) {
	gen, _ := webGenerator(beirutCard, fridayNoon)

	ics, _, err := gen.RunSync(context.Background(), webConfig(3))
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Equal(t, 4*7, strings.Count(icsStr, "BEGIN:VEVENT"))
	assert.Contains(t, icsStr, "-2024-03-14-Fajr@")
	assert.Contains(t, icsStr, "-2024-03-17-Fajr@")
	assert.NotContains(t, icsStr, "-2024-03-18-Fajr@")
}

func TestRunSync_PlaceTimeZoneDecidesToday(t *testing.T) {
	// 23:00 UTC on the 15th is already the 16th in Beirut, but still the
	// 15th for a place without TZ.
	late := time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)
	content := beirutCard +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Tripoli\r\nGEO:34.4367;35.8497\r\nEND:VCARD\r\n"
	gen, _ := webGenerator(content, late)

	ics, places, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)
	require.Len(t, places, 2)

	beirut, tripoli := places[0].UID, places[1].UID
	icsStr := string(ics)
	assert.Contains(t, icsStr, beirut+"-2024-03-16-Fajr@")
	assert.NotContains(t, icsStr, tripoli+"-2024-03-16-Fajr@")
	assert.Contains(t, icsStr, tripoli+"-2024-03-15-Fajr@")
}

func TestRunSync_WithReminders(t *testing.T) {
	gen, _ := webGenerator(beirutCard, fridayNoon)
	cfg := webConfig(1)
	cfg.ReminderTrigger = "-PT10M"

	ics, _, err := gen.RunSync(context.Background(), cfg)
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Equal(t, 14, strings.Count(icsStr, "BEGIN:VALARM"))
	assert.Contains(t, icsStr, "TRIGGER:-PT10M")
	assert.Contains(t, icsStr, "ACTION:DISPLAY")
	assert.Contains(t, icsStr, "DESCRIPTION:Jumua - Beirut", "the summary is the default alarm text")
}

func TestRunSync_LocalizedReminders(t *testing.T) {
	gen, _ := webGenerator(beirutCard, fridayNoon)
	gen.FormatReminder = func(p prayer.Prayer, ref time.Time) string {
		return "Time for " + p.Name(ref)
	}
	cfg := webConfig(1)
	cfg.ReminderTrigger = "PT0S"

	ics, _, err := gen.RunSync(context.Background(), cfg)
	require.NoError(t, err)

	icsStr := string(ics)
	assert.Contains(t, icsStr, "DESCRIPTION:Time for Jumua")
	assert.Contains(t, icsStr, "TRIGGER:PT0S")
}

func TestRunSync_SkipsUnusableCards(t *testing.T) {
	content := beirutCard +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:No Geo\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Bad Geo\r\nGEO:north;east\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Out Of Range\r\nGEO:95;10\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Makkah\r\nGEO:geo:21.4225,39.8262\r\nTZ:Nowhere/City\r\nEND:VCARD\r\n" +
		beirutCard

	gen, _ := webGenerator(content, fridayNoon)
	ics, places, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)

	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Beirut", "Makkah"}, names, "duplicates and cards without usable GEO are dropped")
	assert.Nil(t, places[1].Location, "an unknown TZ is ignored")
	assert.Equal(t, 28, strings.Count(string(ics), "BEGIN:VEVENT"))
}

func TestRunSync_PolarDaysSkipped(t *testing.T) {
	content := "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Tromso\r\nGEO:69.6492;18.9553\r\nEND:VCARD\r\n"
	gen, _ := webGenerator(content, time.Date(2016, time.June, 21, 12, 0, 0, 0, time.UTC))

	rec := new(MockRecorder)
	rec.On("RecordSkippedDay", config.ReasonNoCrossing).Return().Times(2)
	rec.On("RecordFeed", 1, 0).Return().Once()
	rec.On("RecordSync", config.ResultSuccess, mock.Anything).Return().Once()
	gen.Metrics = rec

	ics, places, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)

	assert.Len(t, places, 1)
	assert.Equal(t, config.StubVCalendar, string(ics), "a feed without events is still a valid calendar")
	rec.AssertExpectations(t)
}

func TestRunSync_Web_NetworkError(t *testing.T) {
	f := new(MockFetcher)
	expectedErr := errors.New("network unreachable")
	f.On("Fetch", mock.Anything, "http://bad-url.com", "user", "secret").Return(nil, expectedErr)

	rec := new(MockRecorder)
	rec.On("RecordSync", config.ResultFailure, mock.Anything).Return().Once()

	gen := &engine.Generator{Clock: MockClock{CurrentTime: fridayNoon}, Fetcher: f, Metrics: rec}
	ics, places, err := gen.RunSync(context.Background(), engine.SyncConfig{
		Mode:    config.SourceModeWeb,
		WebURL:  "http://bad-url.com",
		WebUser: "user",
		WebPass: "secret",
	})

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, ics)
	assert.Nil(t, places)
	f.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestRunSync_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *engine.Generator
		cfg     engine.SyncConfig
		wantErr string
	}{
		{"Local without path", &engine.Generator{}, engine.SyncConfig{Mode: config.SourceModeLocal}, config.ErrLocalPathEmpty},
		{"Web without URL", &engine.Generator{}, engine.SyncConfig{Mode: config.SourceModeWeb}, config.ErrWebURLEmpty},
		{"Web without fetcher", &engine.Generator{}, engine.SyncConfig{Mode: config.SourceModeWeb, WebURL: "http://x"}, config.ErrFetcherMissing},
		{"Unknown mode", &engine.Generator{}, engine.SyncConfig{Mode: "ftp"}, config.ErrModeUnsupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.gen.Clock = MockClock{CurrentTime: fridayNoon}
			_, _, err := tt.gen.RunSync(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunSync_MalformedStream(t *testing.T) {
	gen, _ := webGenerator("this is not a vcard", fridayNoon)
	_, _, err := gen.RunSync(context.Background(), webConfig(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrVCardParse)
}

func TestRunSync_Empty(t *testing.T) {
	gen, _ := webGenerator("", fridayNoon)
	ics, places, err := gen.RunSync(context.Background(), webConfig(1))
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Equal(t, config.StubVCalendar, string(ics))
}

func TestRunSync_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "places.vcf")
	require.NoError(t, os.WriteFile(path, []byte(beirutCard), config.FilePermUserRW))

	gen := &engine.Generator{Clock: MockClock{CurrentTime: fridayNoon}}
	_, _, err := gen.RunSync(ctx, engine.SyncConfig{Mode: config.SourceModeLocal, LocalPath: path})

	assert.Equal(t, context.Canceled, err)
}
