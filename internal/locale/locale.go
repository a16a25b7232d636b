// Package locale translates prayer names and calendar strings.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message IDs against the embedded locale files.
// It is safe for concurrent use.
type Translator struct {
	bundle    *i18n.Bundle
	languages []string
	matcher   language.Matcher

	mu         sync.Mutex
	localizers map[string]*i18n.Localizer
}

// New loads every embedded active.<lang>.json file. Malformed file names are
// skipped; a file that fails to parse is an error.
func New() (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var langs []string
	var tags []language.Tag

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		mf, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", config.ErrLocaleLoad, name, err)
		}

		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
		langs = append(langs, langCode)
		tags = append(tags, mf.Tag)
	}

	// The matcher falls back to its first tag, so English leads.
	for i, l := range langs {
		if l == config.DefaultLanguage && i > 0 {
			langs[0], langs[i] = langs[i], langs[0]
			tags[0], tags[i] = tags[i], tags[0]
			break
		}
	}

	return &Translator{
		bundle:     bundle,
		languages:  langs,
		matcher:    language.NewMatcher(tags),
		localizers: make(map[string]*i18n.Localizer),
	}, nil
}

// Languages returns the codes of the loaded locales, the default first.
func (t *Translator) Languages() []string {
	out := make([]string, len(t.languages))
	copy(out, t.languages)
	return out
}

// Match picks the best supported language for the given preferences, which may
// be language codes or Accept-Language header values.
func (t *Translator) Match(prefs ...string) string {
	if len(t.languages) == 0 {
		return config.DefaultLanguage
	}
	_, idx := language.MatchStrings(t.matcher, prefs...)
	return t.languages[idx]
}

func (t *Translator) localizer(lang string) *i18n.Localizer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if l, ok := t.localizers[lang]; ok {
		return l
	}
	l := i18n.NewLocalizer(t.bundle, lang, config.DefaultLanguage)
	t.localizers[lang] = l
	return l
}

// Msg translates key into lang. A missing key is logged and returned as is.
func (t *Translator) Msg(lang, key string, data map[string]any) string {
	msg, err := t.localizer(lang).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyLang, lang,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// PrayerName returns the display name of p on the day of ref in lang.
func (t *Translator) PrayerName(lang string, p prayer.Prayer, ref time.Time) string {
	key := p.MessageID(ref)
	if msg := t.Msg(lang, key, nil); msg != key {
		return msg
	}
	return p.Name(ref)
}

// EventSummary titles a calendar event, e.g. "Asr - Beirut".
func (t *Translator) EventSummary(lang, prayerName, place string) string {
	data := map[string]any{"Prayer": prayerName, "Place": place}
	if msg := t.Msg(lang, config.TKeyEvtSummary, data); msg != config.TKeyEvtSummary {
		return msg
	}
	return fmt.Sprintf(config.FallbackSummary, prayerName, place)
}

// Reminder is the alarm text of a prayer event.
func (t *Translator) Reminder(lang, prayerName string) string {
	return t.Msg(lang, config.TKeyEvtReminder, map[string]any{"Prayer": prayerName})
}

// CalendarName is the feed title in lang.
func (t *Translator) CalendarName(lang string) string {
	if msg := t.Msg(lang, config.TKeyCalendarName, nil); msg != config.TKeyCalendarName {
		return msg
	}
	return config.ICalCalName
}
