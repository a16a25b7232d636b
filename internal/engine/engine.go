package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/metrics"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// eventPrayers are the schedule positions published as calendar events.
// FajrTomorrow is left out: it is the next day's Fajr.
var eventPrayers = []prayer.Prayer{
	prayer.Fajr,
	prayer.Sunrise,
	prayer.Dhuhr,
	prayer.Asr,
	prayer.Maghrib,
	prayer.Ishaa,
	prayer.Qiyam,
}

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode            string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath       string // Path to the .vcf address book of places
	WebURL          string // CardDAV or WebDAV URL
	WebUser         string // HTTP Basic Auth Username
	WebPass         string // HTTP Basic Auth Password
	ReminderTrigger string // ISO8601 duration string (e.g., "-PT10M")

	Parameters prayer.Parameters

	// Days is the number of days published from today. Yesterday is always
	// included so that clients do not lose the evening events at midnight.
	Days int

	// Location decides "today" for places without a TZ property. Nil means UTC.
	Location *time.Location
}

// Generator turns an address book of places into a prayer times calendar.
type Generator struct {
	Clock   Clock
	Fetcher VCardFetcher
	Metrics metrics.Recorder

	// CalendarName titles the feed; empty means config.ICalCalName.
	CalendarName string

	// FormatSummary localizes event titles. ref is the day of the schedule.
	FormatSummary func(p prayer.Prayer, ref time.Time, place string) string

	// FormatReminder localizes alarm texts; nil reuses the summary.
	FormatReminder func(p prayer.Prayer, ref time.Time) string
}

type syncStats struct {
	cards, places, events, skipped int
}

// RunSync reads the places, computes their schedules and encodes the feed.
// It returns the ICS data and the places it was built from.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) ([]byte, []Place, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	ics, places, err := g.sync(ctx, cfg)

	result := config.ResultSuccess
	if err != nil {
		result = config.ResultFailure
	}
	if g.Metrics != nil {
		g.Metrics.RecordSync(result, time.Since(start))
	}
	if err == nil {
		log.DebugContext(ctx, config.MsgSyncFinished, config.LogKeyDuration, time.Since(start).Milliseconds())
	}
	return ics, places, err
}

func (g *Generator) sync(ctx context.Context, cfg SyncConfig) ([]byte, []Place, error) {
	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("%s: %w", config.ErrSyncFailed, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	places, stats, err := readPlaces(ctx, reader)
	if err != nil {
		return nil, nil, err
	}

	ics, err := g.generateCalendar(ctx, places, cfg, &stats)
	if err != nil {
		return nil, nil, err
	}

	if g.Metrics != nil {
		g.Metrics.RecordFeed(stats.places, stats.events)
	}
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.cards),
			slog.Int(config.LogKeyPlaces, stats.places),
			slog.Int(config.LogKeyEvents, stats.events),
			slog.Int(config.LogKeySkipped, stats.skipped),
		),
	)
	return ics, places, nil
}

// acquireStream opens the appropriate data source based on configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

// readPlaces decodes every card of r. Malformed cards and cards without a
// usable GEO are logged and skipped; duplicates keep their first occurrence.
func readPlaces(ctx context.Context, r io.Reader) ([]Place, syncStats, error) {
	var stats syncStats
	var places []Place
	seen := make(map[string]bool)

	decoder := vcard.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, err)
			// Stop at the first syntax error, keeping the cards decoded so far.
			if stats.cards == 0 {
				return nil, stats, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
			}
			break
		}
		stats.cards++

		place, tzErr, err := placeFromCard(card)
		if err != nil {
			slog.Warn(config.MsgSkippedGeo,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, card.Value(config.VCardFN),
				config.LogKeyValue, card.Value(config.VCardGEO),
				config.LogKeyError, err)
			continue
		}
		if tzErr != nil {
			slog.Warn(config.MsgBadTimezone,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, place.Name,
				config.LogKeyValue, card.Value(config.VCardTZ),
				config.LogKeyError, tzErr)
		}
		if seen[place.UID] {
			continue
		}
		seen[place.UID] = true
		places = append(places, place)
	}

	stats.places = len(places)
	return places, stats, nil
}

// generateCalendar computes the schedules of every place and encodes them.
func (g *Generator) generateCalendar(ctx context.Context, places []Place, cfg SyncConfig, stats *syncStats) ([]byte, error) {
	cal := ical.NewCalendar()

	name := g.CalendarName
	if name == "" {
		name = config.ICalCalName
	}
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, name)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(g.Clock.Now().UTC())

	days := cfg.Days
	if days <= 0 {
		days = config.DefaultDays
	}

	for _, place := range places {
		loc := place.Location
		if loc == nil {
			loc = cfg.Location
		}
		if loc == nil {
			loc = time.UTC
		}
		today := Today(g.Clock, loc)

		for offset := -1; offset < days; offset++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			date := today.AddDays(offset)
			times, err := prayer.New(date, place.Coordinates, cfg.Parameters)
			if err != nil {
				g.skipDay(place, date, err)
				stats.skipped++
				continue
			}

			for _, e := range g.createEvents(place, times, cfg.ReminderTrigger) {
				e.Props.Set(dtStampProp)
				cal.Children = append(cal.Children, e.Component)
				stats.events++
			}
		}
	}

	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) skipDay(place Place, date prayer.Date, err error) {
	reason := config.ReasonInvalid
	if errors.Is(err, astronomy.ErrNoCrossing) {
		reason = config.ReasonNoCrossing
	}
	slog.Warn(config.MsgSkippedDay,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyName, place.Name,
		config.LogKeyDate, date.String(),
		config.LogKeyError, err)
	if g.Metrics != nil {
		g.Metrics.RecordSkippedDay(reason)
	}
}

// createEvents builds one event per published prayer of times.
func (g *Generator) createEvents(place Place, times *prayer.Times, reminderTrigger string) []*ical.Event {
	ref := times.Date().Time()
	geo := fmt.Sprintf(config.GeoFormat, place.Coordinates.Latitude(), place.Coordinates.Longitude())

	events := make([]*ical.Event, 0, len(eventPrayers))
	for _, p := range eventPrayers {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID,
			fmt.Sprintf(config.FormatUID, place.UID, times.Date(), p, config.ICalDomain))

		summary := fmt.Sprintf(config.FallbackSummary, p.Name(ref), place.Name)
		if g.FormatSummary != nil {
			summary = g.FormatSummary(p, ref, place.Name)
		}
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropLocation, place.Name)
		event.Props.SetText(config.PropCategories, config.AppName)

		// GEO is a structured value; SetText would escape its separator.
		geoProp := ical.NewProp(config.PropGeo)
		geoProp.Value = geo
		event.Props.Set(geoProp)

		start := times.Time(p)
		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDateTime(start.UTC())
		event.Props.Set(dtStartProp)

		dtEndProp := ical.NewProp(config.PropDTEnd)
		dtEndProp.SetDateTime(start.Add(config.EventDuration).UTC())
		event.Props.Set(dtEndProp)

		if reminderTrigger != "" {
			description := summary
			if g.FormatReminder != nil {
				description = g.FormatReminder(p, ref)
			}
			addAlarm(event, reminderTrigger, description)
		}
		events = append(events, event)
	}
	return events
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the raw value to avoid a VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
