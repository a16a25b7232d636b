package ui

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/locale"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockSource simulates the worker using testify/mock.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Places() []engine.Place {
	args := m.Called()
	return args.Get(0).([]engine.Place)
}

func (m *MockSource) Refresh(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// MockTray implements minimal system tray functionality for headless testing.
type MockTray struct {
	Menu *fyne.Menu
}

func (m *MockTray) SetSystemTrayMenu(menu *fyne.Menu) {
	m.Menu = menu
}

func (m *MockTray) SetSystemTrayIcon(icon fyne.Resource) {}
func (m *MockTray) SetSystemTrayWindow(w fyne.Window)    {}
func (m *MockTray) Run()                                 {}
func (m *MockTray) Quit()                                {}

type recordingPublisher struct {
	data chan []byte
}

func (p *recordingPublisher) Update(data []byte) {
	p.data <- data
}

// -----------------------------------------------------------------------------
// Test Setup Helper
// -----------------------------------------------------------------------------

var beirutZone = mustZone("Asia/Beirut")

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// beirut uses the coordinates of the print mode tests; Egyptian times on
// Friday 2024-03-15 are Fajr 04:19, Jumua 11:49, Asr 15:13 local.
var beirut = engine.Place{
	UID:         "beirut",
	Name:        "Beirut",
	Coordinates: astronomy.MustCoordinates(33.88863, 35.49548),
	Location:    beirutZone,
}

var london = engine.Place{
	UID:         "london",
	Name:        "London",
	Coordinates: astronomy.MustCoordinates(51.5074, -0.1278),
}

// setupTestApp initializes a headless fyne app with mocked dependencies.
func setupTestApp(t *testing.T, now time.Time, places ...engine.Place) (*AzanApp, *MockSource, *MockTray) {
	t.Helper()
	a := test.NewApp()

	tr, err := locale.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := New(a, ctx, tr, config.Settings{
		Method:   "Egyptian",
		Language: "en",
		Timezone: "Europe/London",
	})

	source := new(MockSource)
	if places == nil {
		places = []engine.Place{}
	}
	source.On("Places").Return(places).Maybe()

	mockTray := &MockTray{}
	app.Source = source
	app.Tray = mockTray
	app.Clock = MockClock{CurrentTime: now}

	return app, source, mockTray
}

func beirutTime(hour, minute int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, 0, 0, beirutZone)
}

// -----------------------------------------------------------------------------
// Preferences
// -----------------------------------------------------------------------------

func TestSettings_PreferencesOverlay(t *testing.T) {
	app, _, _ := setupTestApp(t, beirutTime(12, 0))
	app.Defaults.Reminder = "-PT10M"
	app.Defaults.Username = "env-user"

	s := app.Settings()
	assert.Equal(t, "Egyptian", s.Method)
	assert.Equal(t, "-PT10M", s.Reminder, "no saved reminder keeps the environment value")

	app.Preferences.SetString(config.PrefMethod, "Karachi")
	app.Preferences.SetString(config.PrefMadhab, "Hanafi")
	app.Preferences.SetString(config.PrefHighLatRule, "NoSuchRule")
	app.Preferences.SetString(config.PrefLanguage, "de")
	app.Preferences.SetInt(config.PrefReminderMinutes, 15)

	s = app.Settings()
	assert.Equal(t, "Karachi", s.Method)
	assert.Equal(t, "Hanafi", s.Madhab)
	assert.Empty(t, s.HighLatitudeRule, "unparsable preference is ignored")
	assert.Equal(t, "en", s.Language, "unsupported language is ignored")
	assert.Equal(t, "-PT15M", s.Reminder)
	assert.Equal(t, "env-user", s.Username)

	app.Preferences.SetInt(config.PrefReminderMinutes, 0)
	assert.Empty(t, app.Settings().Reminder, "zero minutes disables alarms")

	app.Preferences.SetString(config.PrefLanguage, "fr")
	assert.Equal(t, "fr", app.Language())
}

// -----------------------------------------------------------------------------
// Place Status
// -----------------------------------------------------------------------------

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		current    prayer.Prayer
		hasCurrent bool
		next       prayer.Prayer
		remaining  string
		label      string
	}{
		{"After Jumua", beirutTime(13, 37), prayer.Dhuhr, true, prayer.Asr, "1h36", "Beirut: Jumua, Asr in 1h36"},
		{"Before Fajr", beirutTime(3, 0), prayer.Qiyam, true, prayer.Fajr, "1h19", "Beirut: Qiyam, Fajr in 1h19"},
		{"Evening", beirutTime(18, 0), prayer.Maghrib, true, prayer.Ishaa, "1h08", "Beirut: Maghrib, Ishaa in 1h08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := setupTestApp(t, tt.now)

			st := app.Status(beirut)
			require.NoError(t, st.Err)
			assert.Equal(t, tt.hasCurrent, st.HasCurrent)
			assert.Equal(t, tt.current, st.Current)
			assert.Equal(t, tt.next, st.Next)
			assert.Equal(t, tt.remaining, FormatRemaining(st.Remaining))
			assert.Equal(t, tt.label, app.StatusLabel(st))
		})
	}
}

func TestStatus_Localized(t *testing.T) {
	app, _, _ := setupTestApp(t, beirutTime(13, 37))
	app.Preferences.SetString(config.PrefLanguage, "fr")

	assert.Equal(t, "Beirut : Joumoua, Asr dans 1h36", app.StatusLabel(app.Status(beirut)))
}

func TestStatus_DefaultTimezone(t *testing.T) {
	// London has no TZ property; the configured Europe/London applies.
	app, _, _ := setupTestApp(t, time.Date(2024, time.March, 15, 23, 30, 0, 0, time.UTC))

	st := app.Status(london)
	require.NoError(t, st.Err)
	assert.Equal(t, prayer.Ishaa, st.Current)
	assert.Equal(t, prayer.Qiyam, st.Next)
	assert.Equal(t, "Europe/London", st.CurrentAt.Location().String())
	assert.Equal(t, 15, st.CurrentAt.Day(), "schedule of the local day")
	assert.Equal(t, 16, st.NextAt.Day(), "the last third starts after midnight")
}

func TestStatus_Unavailable(t *testing.T) {
	// The middle of the night fallback cannot order a London summer night.
	app, _, _ := setupTestApp(t, time.Date(2016, time.June, 21, 12, 0, 0, 0, time.UTC))
	app.Defaults.Method = "MuslimWorldLeague"

	st := app.Status(london)
	require.Error(t, st.Err)
	assert.True(t, errors.Is(st.Err, astronomy.ErrNoCrossing))
	assert.Equal(t, "London: times unavailable", app.StatusLabel(st))

	app.Defaults.Method = "Lunar"
	st = app.Status(london)
	require.Error(t, st.Err)
	assert.Contains(t, st.Err.Error(), config.ErrUnknownMethod)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0h00", FormatRemaining(-time.Minute))
	assert.Equal(t, "0h00", FormatRemaining(59*time.Second))
	assert.Equal(t, "2h09", FormatRemaining(2*time.Hour+9*time.Minute+59*time.Second))
	assert.Equal(t, "25h00", FormatRemaining(25*time.Hour))
}

// -----------------------------------------------------------------------------
// Tray Menu
// -----------------------------------------------------------------------------

func TestTrayMenu(t *testing.T) {
	app, _, mockTray := setupTestApp(t, beirutTime(13, 37), beirut, london)
	app.setupTrayMenu()

	require.NotNil(t, mockTray.Menu)
	items := mockTray.Menu.Items
	require.Len(t, items, 6, "two places, separator and three actions")

	assert.Equal(t, "Beirut: Jumua, Asr in 1h36", items[0].Label)
	assert.Contains(t, items[1].Label, "London: ")
	assert.True(t, items[2].IsSeparator)
	assert.Equal(t, "Refresh now", items[3].Label)
	assert.Equal(t, "Places...", items[4].Label)
	assert.Equal(t, "Settings...", items[5].Label)

	app.Preferences.SetString(config.PrefLanguage, "fr")
	app.UpdateTray()
	assert.Equal(t, "Actualiser", mockTray.Menu.Items[3].Label)
	assert.Equal(t, "Beirut : Joumoua, Asr dans 1h36", mockTray.Menu.Items[0].Label)
}

func TestTrayMenu_NoPlaces(t *testing.T) {
	app, _, mockTray := setupTestApp(t, beirutTime(13, 37))
	app.setupTrayMenu()

	items := mockTray.Menu.Items
	require.Len(t, items, 5)
	assert.Equal(t, "No places", items[0].Label)
	assert.True(t, items[0].Disabled)
}

func TestTrayMenu_TicksWithClock(t *testing.T) {
	app, _, mockTray := setupTestApp(t, beirutTime(13, 37), beirut)
	app.setupTrayMenu()

	app.Clock = MockClock{CurrentTime: beirutTime(15, 20)}
	app.UpdateTray()
	assert.Equal(t, "Beirut: Asr, Maghrib in 2h26", mockTray.Menu.Items[0].Label)
}

func TestPerformRefresh(t *testing.T) {
	app, source, _ := setupTestApp(t, beirutTime(13, 37))
	source.On("Refresh", app.Ctx).Return(true).Once()
	source.On("Refresh", app.Ctx).Return(false).Once()

	assert.True(t, app.performRefresh(false))
	assert.False(t, app.performRefresh(true))
	source.AssertNumberOfCalls(t, "Refresh", 2)
}

func TestForward(t *testing.T) {
	app, _, mockTray := setupTestApp(t, beirutTime(13, 37), beirut)
	app.setupTrayMenu()
	mockTray.Menu.Items = nil

	next := &recordingPublisher{data: make(chan []byte, 1)}
	app.Forward(next).Update([]byte("BEGIN:VCALENDAR"))

	assert.Equal(t, []byte("BEGIN:VCALENDAR"), <-next.data)
	assert.Eventually(t, func() bool { return len(mockTray.Menu.Items) == 5 }, time.Second, 10*time.Millisecond)
}
