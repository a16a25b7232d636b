// Package ui is the desktop front end: a system tray menu listing the
// current and next prayer of every place in the feed, plus places and
// settings windows backed by fyne preferences.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/locale"
	"github.com/ibad-al-rahman/azan/internal/prayer"
	"github.com/ibad-al-rahman/azan/internal/worker"
)

// PlaceSource provides the places of the published feed. *worker.Worker
// implements it.
type PlaceSource interface {
	Places() []engine.Place
	Refresh(ctx context.Context) bool
}

// AzanApp encapsulates the UI state, preferences and translations.
type AzanApp struct {
	App         fyne.App
	Preferences fyne.Preferences
	Translator  *locale.Translator
	Source      PlaceSource
	Clock       engine.Clock // Injected clock for testability
	Ctx         context.Context

	// Defaults are the environment settings the saved preferences override.
	Defaults config.Settings

	Tray desktop.App
	Menu *fyne.Menu

	TrayRefreshItem  *fyne.MenuItem
	TrayPlacesItem   *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	settingsWindow fyne.Window
	placesWindow   fyne.Window
}

// PlaceStatus is the position of a place in its schedule at one instant.
type PlaceStatus struct {
	Place engine.Place

	// Current is meaningful only when HasCurrent is set. Before Fajr it is
	// taken from the previous day's schedule.
	Current    prayer.Prayer
	HasCurrent bool
	CurrentAt  time.Time

	Next      prayer.Prayer
	NextAt    time.Time
	Remaining time.Duration

	Err error
}

// New constructs the application and wires dependencies.
func New(a fyne.App, ctx context.Context, tr *locale.Translator, defaults config.Settings) *AzanApp {
	a.SetIcon(theme.HistoryIcon())

	return &AzanApp{
		App:         a,
		Preferences: a.Preferences(),
		Translator:  tr,
		Clock:       engine.RealClock{},
		Ctx:         ctx,
		Defaults:    defaults,
	}
}

// Run shows the tray menu and blocks in the fyne event loop. The loop ends
// when the user quits or when Ctx is cancelled.
func (app *AzanApp) Run() {
	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	go app.tick()
	app.App.Run()
}

// tick recomputes the tray labels every TrayRefreshTick.
func (app *AzanApp) tick() {
	ticker := time.NewTicker(config.TrayRefreshTick)
	defer ticker.Stop()

	for {
		select {
		case <-app.Ctx.Done():
			fyne.Do(app.App.Quit)
			return
		case <-ticker.C:
			fyne.Do(app.UpdateTray)
		}
	}
}

// Settings returns Defaults overlaid with the saved preferences. Saved
// values that no longer parse are ignored.
func (app *AzanApp) Settings() config.Settings {
	s := app.Defaults
	p := app.Preferences

	if v := p.String(config.PrefLanguage); v != "" && slices.Contains(app.Translator.Languages(), v) {
		s.Language = v
	}
	if v := p.String(config.PrefMethod); v != "" {
		if _, err := prayer.ParseMethod(v); err == nil {
			s.Method = v
		}
	}
	if v := p.String(config.PrefMadhab); v != "" {
		if _, err := prayer.ParseMadhab(v); err == nil {
			s.Madhab = v
		}
	}
	if v := p.String(config.PrefHighLatRule); v != "" {
		if _, err := prayer.ParseHighLatitudeRule(v); err == nil {
			s.HighLatitudeRule = v
		}
	}
	if v := p.String(config.PrefUsername); v != "" {
		s.Username = v
	}

	switch m := p.IntWithFallback(config.PrefReminderMinutes, config.PrefUnset); {
	case m == config.PrefUnset:
	case m <= 0:
		s.Reminder = ""
	default:
		s.Reminder = fmt.Sprintf(config.FormatReminderTrigger, m)
	}
	return s
}

// Language is the display language of the current settings.
func (app *AzanApp) Language() string {
	return app.Translator.Match(app.Settings().Language)
}

func (app *AzanApp) msg(key string, data map[string]any) string {
	return app.Translator.Msg(app.Language(), key, data)
}

// setupTrayMenu constructs the system tray menu.
func (app *AzanApp) setupTrayMenu() {
	app.TrayRefreshItem = fyne.NewMenuItem(app.msg(config.TKeyMenuRefresh, nil), func() {
		go app.refreshInBackground(true)
	})
	app.TrayPlacesItem = fyne.NewMenuItem(app.msg(config.TKeyMenuPlaces, nil), func() {
		app.ShowPlacesWindow()
	})
	app.TraySettingsItem = fyne.NewMenuItem(app.msg(config.TKeyMenuSettings, nil), func() {
		app.ShowSettingsWindow()
	})

	app.Menu = fyne.NewMenu(config.AppName)
	app.UpdateTray()

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// UpdateTray rebuilds the status line of every place and relabels the
// actions in the current language.
func (app *AzanApp) UpdateTray() {
	if app.Menu == nil {
		return
	}

	statuses := app.Statuses()
	items := make([]*fyne.MenuItem, 0, len(statuses)+4)
	for _, st := range statuses {
		items = append(items, fyne.NewMenuItem(app.StatusLabel(st), func() {
			app.ShowPlacesWindow()
		}))
	}
	if len(statuses) == 0 {
		empty := fyne.NewMenuItem(app.msg(config.TKeyTrayEmpty, nil), nil)
		empty.Disabled = true
		items = append(items, empty)
	}

	app.TrayRefreshItem.Label = app.msg(config.TKeyMenuRefresh, nil)
	app.TrayPlacesItem.Label = app.msg(config.TKeyMenuPlaces, nil)
	app.TraySettingsItem.Label = app.msg(config.TKeyMenuSettings, nil)

	items = append(items,
		fyne.NewMenuItemSeparator(),
		app.TrayRefreshItem,
		app.TrayPlacesItem,
		app.TraySettingsItem,
	)
	app.Menu.Items = items
	app.Menu.Refresh()
}

// refreshInBackground runs one refresh off the UI goroutine and then
// updates the tray on it.
func (app *AzanApp) refreshInBackground(manual bool) {
	app.performRefresh(manual)
	fyne.Do(app.UpdateTray)
}

// performRefresh asks the source for a new feed. A manual refresh reports
// its progress through notifications.
func (app *AzanApp) performRefresh(manual bool) bool {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI)

	if manual {
		app.App.SendNotification(fyne.NewNotification(config.AppName, app.msg(config.TKeyNotifStart, nil)))
	}

	ok := app.Source != nil && app.Source.Refresh(app.Ctx)

	if manual {
		if ok {
			app.App.SendNotification(fyne.NewNotification(config.AppName, app.msg(config.TKeyNotifSuccess, nil)))
		} else {
			app.App.SendNotification(fyne.NewNotification(config.TitleSyncError, app.msg(config.TKeyNotifError, nil)))
		}
	}
	return ok
}

// Forward returns a publisher that hands each feed to next and then updates
// the tray, so that new places appear without waiting for the next tick.
func (app *AzanApp) Forward(next worker.Publisher) worker.Publisher {
	return publisherFunc(func(data []byte) {
		next.Update(data)
		fyne.Do(app.UpdateTray)
	})
}

type publisherFunc func(data []byte)

func (f publisherFunc) Update(data []byte) { f(data) }

// Statuses returns the status of every place of the source.
func (app *AzanApp) Statuses() []PlaceStatus {
	if app.Source == nil {
		return nil
	}
	places := app.Source.Places()
	out := make([]PlaceStatus, 0, len(places))
	for _, p := range places {
		out = append(out, app.Status(p))
	}
	return out
}

// Status locates the current and next prayer of p at the clock's time, in
// the schedule of the place's local day.
func (app *AzanApp) Status(p engine.Place) PlaceStatus {
	st := PlaceStatus{Place: p}
	s := app.Settings()

	params, err := engine.ResolveParameters(s.Method, s.Madhab, s.HighLatitudeRule)
	if err != nil {
		st.Err = err
		return st
	}
	loc := placeLocation(p, s)
	today := engine.Today(app.Clock, loc)

	times, err := engine.Query{Date: today, Coordinates: p.Coordinates, Parameters: params}.Calculate()
	if err != nil {
		st.Err = err
		return st
	}

	st.Next = engine.NextPrayer(times, app.Clock)
	st.NextAt = times.Time(st.Next).In(loc)
	st.Remaining = max(engine.TimeRemaining(times, app.Clock), 0)

	if cur, ok := engine.CurrentPrayer(times, app.Clock); ok {
		st.Current, st.HasCurrent, st.CurrentAt = cur, true, times.Time(cur).In(loc)
		return st
	}

	// Before Fajr the night of the previous day is still running.
	prev, err := engine.Query{Date: today.AddDays(-1), Coordinates: p.Coordinates, Parameters: params}.Calculate()
	if err != nil {
		return st
	}
	if cur, ok := engine.CurrentPrayer(prev, app.Clock); ok {
		st.Current, st.HasCurrent, st.CurrentAt = cur, true, prev.Time(cur).In(loc)
	}
	return st
}

// placeLocation picks the zone of the place, then the configured default,
// then the zone of the desktop.
func placeLocation(p engine.Place, s config.Settings) *time.Location {
	if p.Location != nil {
		return p.Location
	}
	if s.Timezone != "" {
		if loc, err := engine.ParseTimeZone(s.Timezone); err == nil {
			return loc
		}
	}
	return time.Local
}

// StatusLabel renders st for the tray, e.g. "Beirut: Asr, Maghrib in 2h09".
func (app *AzanApp) StatusLabel(st PlaceStatus) string {
	lang := app.Language()
	tr := app.Translator

	if st.Err != nil {
		return tr.Msg(lang, config.TKeyTrayError, map[string]any{"Place": st.Place.Name})
	}

	next := tr.PrayerName(lang, st.Next, st.NextAt)
	data := map[string]any{
		"Place":     st.Place.Name,
		"Next":      next,
		"Remaining": FormatRemaining(st.Remaining),
	}

	key := config.TKeyTrayUpcoming
	if st.HasCurrent {
		key = config.TKeyTrayStatus
		data["Current"] = tr.PrayerName(lang, st.Current, st.CurrentAt)
	}

	if label := tr.Msg(lang, key, data); label != key {
		return label
	}
	return fmt.Sprintf(config.FallbackTrayStatus, st.Place.Name, next)
}

// FormatRemaining renders d as hours and minutes, rounded down.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)
	return fmt.Sprintf(config.FormatRemaining, int(d/time.Hour), int(d%time.Hour/time.Minute))
}
