package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ibad-al-rahman/azan/internal/astronomy"
	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

type prayerTime struct {
	Prayer prayer.Prayer `json:"prayer"`
	Name   string        `json:"name"`
	Time   time.Time     `json:"time"`
}

type coordinatesBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// timesResponse is the JSON answer of /times. Instants are rendered in the
// requested time zone.
type timesResponse struct {
	Date             string          `json:"date"`
	Coordinates      coordinatesBody `json:"coordinates"`
	Method           string          `json:"method"`
	Mazhab           string          `json:"mazhab"`
	TimeZone         string          `json:"timezone"`
	Language         string          `json:"language,omitempty"`
	Times            []prayerTime    `json:"times"`
	MiddleOfTheNight time.Time       `json:"middle_of_the_night"`
	Current          *prayer.Prayer  `json:"current"`
	Next             prayer.Prayer   `json:"next"`
	TimeRemaining    int64           `json:"time_remaining_seconds"`
}

type errorBody struct {
	Error string `json:"error"`
}

// handleTimes answers GET /times?lat=&lon=&method=&mazhab=&date=&tz=&lang=
// and POST /times with a JSON request body.
func (s *CalendarServer) handleTimes(w http.ResponseWriter, r *http.Request) {
	log := slog.With(config.LogKeyComponent, config.CompServer)

	req, err := s.readRequest(r)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	loc := s.Location
	if tz := r.URL.Query().Get(config.QueryTimezone); tz != "" {
		if loc, err = engine.ParseTimeZone(tz); err != nil {
			s.fail(w, log, fmt.Errorf("%w: %w", engine.ErrInvalidRequest, err))
			return
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	// Without an explicit date, "today" is the one of the answer's zone.
	if req.Date == nil {
		today := engine.Today(s.Clock, loc)
		req.Date = &engine.RequestDate{Year: today.Year, Month: int(today.Month), Day: today.Day}
	}

	query, err := req.Resolve(s.Clock)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	times, err := query.Calculate()
	if err != nil {
		s.fail(w, log, err)
		return
	}

	lang := s.language(r)
	resp := s.render(times, loc, lang)

	log.Debug(config.MsgTimesServed,
		config.LogKeyCoords, query.Coordinates.String(),
		config.LogKeyDate, query.Date.String(),
		config.LogKeyMethod, query.Parameters.Method().String(),
	)
	writeJSON(w, http.StatusOK, resp)
}

// readRequest builds the request from the body (POST) or the query string.
// An empty method falls back to the server default.
func (s *CalendarServer) readRequest(r *http.Request) (engine.Request, error) {
	var req engine.Request
	var err error
	if r.Method == http.MethodPost {
		req, err = engine.DecodeRequest(r.Body)
	} else {
		req, err = engine.RequestFromValues(r.URL.Query())
	}
	if err != nil {
		return engine.Request{}, err
	}
	if strings.TrimSpace(req.Method) == "" {
		req.Method = s.DefaultMethod
	}
	return req, nil
}

// language picks the answer language from ?lang= then Accept-Language.
func (s *CalendarServer) language(r *http.Request) string {
	if s.Translator == nil {
		return ""
	}
	return s.Translator.Match(r.URL.Query().Get(config.QueryLanguage), r.Header.Get(config.HeaderAcceptLanguage))
}

func (s *CalendarServer) render(times *prayer.Times, loc *time.Location, lang string) timesResponse {
	ref := times.Date().Time()
	now := s.Clock.Now()

	resp := timesResponse{
		Date: times.Date().String(),
		Coordinates: coordinatesBody{
			Latitude:  times.Coordinates().Latitude(),
			Longitude: times.Coordinates().Longitude(),
		},
		Method:           times.Parameters().Method().String(),
		Mazhab:           times.Parameters().Madhab().String(),
		TimeZone:         loc.String(),
		Language:         lang,
		MiddleOfTheNight: times.MiddleOfTheNight().In(loc),
		Next:             times.NextAt(now),
		TimeRemaining:    int64(times.TimeRemainingAt(now) / time.Second),
	}
	if current, ok := times.CurrentAt(now); ok {
		resp.Current = &current
	}

	for _, p := range prayer.All() {
		name := times.Name(p)
		if s.Translator != nil {
			name = s.Translator.PrayerName(lang, p, ref)
		}
		resp.Times = append(resp.Times, prayerTime{Prayer: p, Name: name, Time: times.Time(p).In(loc)})
	}
	return resp
}

// fail maps err to a status code and writes it as JSON.
func (s *CalendarServer) fail(w http.ResponseWriter, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	msg := config.HTTPMsgInternalErr
	switch {
	case errors.Is(err, engine.ErrInvalidRequest),
		errors.Is(err, prayer.ErrIncomplete),
		errors.Is(err, prayer.ErrInvalidDate),
		errors.Is(err, astronomy.ErrInvalidCoordinates):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, astronomy.ErrNoCrossing):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	}

	log.Warn(config.MsgTimesFailed,
		config.LogKeyStatus, status,
		config.LogKeyError, err,
	)
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}
