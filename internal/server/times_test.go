package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/locale"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// 2024-03-15 is a Friday; 10:00 UTC falls between Dhuhr and Asr in Beirut.
var fridayMorning = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

const beirutQuery = "lat=33.888630&lon=35.495480&method=Egyptian&date=2024-03-15"

func newTimesServer(t *testing.T, now time.Time) *CalendarServer {
	t.Helper()
	tr, err := locale.New()
	require.NoError(t, err)

	srv := NewCalendarServer("", "0")
	srv.Clock = MockClock{CurrentTime: now}
	srv.Translator = tr
	return srv
}

func serve(srv *CalendarServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeTimes(t *testing.T, w *httptest.ResponseRecorder) timesResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, config.MimeJSON, w.Header().Get(config.HeaderContentType))

	var resp timesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestTimes_Get(t *testing.T) {
	srv := newTimesServer(t, fridayMorning)
	req := httptest.NewRequest(http.MethodGet, config.RouteTimes+"?"+beirutQuery+"&tz=Asia/Beirut&lang=fr", nil)

	resp := decodeTimes(t, serve(srv, req))

	assert.Equal(t, "2024-03-15", resp.Date)
	assert.Equal(t, "Egyptian", resp.Method)
	assert.Equal(t, "Shafi", resp.Mazhab)
	assert.Equal(t, "Asia/Beirut", resp.TimeZone)
	assert.Equal(t, "fr", resp.Language)
	assert.InDelta(t, 33.888630, resp.Coordinates.Latitude, 1e-9)

	require.Len(t, resp.Times, len(prayer.All()))
	fajr := resp.Times[0]
	assert.Equal(t, prayer.Fajr, fajr.Prayer)
	assert.True(t, fajr.Time.Equal(time.Date(2024, time.March, 15, 2, 19, 0, 0, time.UTC)))
	_, offset := fajr.Time.Zone()
	assert.Equal(t, 2*3600, offset, "rendered in the requested zone")

	assert.Equal(t, prayer.Dhuhr, resp.Times[2].Prayer)
	assert.Equal(t, "Joumoua", resp.Times[2].Name)
	assert.Equal(t, "Lever du soleil", resp.Times[1].Name)
	assert.Equal(t, prayer.FajrTomorrow, resp.Times[7].Prayer)
	assert.True(t, resp.Times[7].Time.Equal(time.Date(2024, time.March, 16, 2, 16, 0, 0, time.UTC)))

	require.NotNil(t, resp.Current)
	assert.Equal(t, prayer.Dhuhr, *resp.Current)
	assert.Equal(t, prayer.Asr, resp.Next)
	assert.Equal(t, int64((3*time.Hour+13*time.Minute)/time.Second), resp.TimeRemaining)
	assert.True(t, resp.MiddleOfTheNight.After(resp.Times[4].Time))
}

func TestTimes_Post(t *testing.T) {
	srv := newTimesServer(t, fridayMorning)
	body := `{"coordinates":{"latitude":33.888630,"longitude":35.495480},"method":"Egyptian",
		"mazhab":"Hanafi","date":{"year":2024,"month":3,"day":15}}`
	req := httptest.NewRequest(http.MethodPost, config.RouteTimes, strings.NewReader(body))
	req.Header.Set(config.HeaderAcceptLanguage, "ar-LB,ar;q=0.9,en;q=0.5")

	resp := decodeTimes(t, serve(srv, req))

	assert.Equal(t, "Hanafi", resp.Mazhab)
	assert.Equal(t, "UTC", resp.TimeZone)
	assert.Equal(t, "ar", resp.Language)
	assert.Equal(t, "الجمعة", resp.Times[2].Name)
	assert.True(t, resp.Times[0].Time.Equal(time.Date(2024, time.March, 15, 2, 19, 0, 0, time.UTC)))
	assert.True(t, resp.Times[3].Time.After(time.Date(2024, time.March, 15, 13, 13, 0, 0, time.UTC)), "Hanafi Asr is later")
}

func TestTimes_Defaults(t *testing.T) {
	// 23:00 UTC is already the 16th in Beirut.
	srv := newTimesServer(t, time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC))
	srv.DefaultMethod = "Egyptian"
	beirut, err := time.LoadLocation("Asia/Beirut")
	require.NoError(t, err)
	srv.Location = beirut

	req := httptest.NewRequest(http.MethodGet, config.RouteTimes+"?lat=33.888630&lon=35.495480", nil)
	resp := decodeTimes(t, serve(srv, req))

	assert.Equal(t, "Egyptian", resp.Method)
	assert.Equal(t, "2024-03-16", resp.Date)
	assert.Equal(t, "Asia/Beirut", resp.TimeZone)
	assert.Equal(t, "en", resp.Language)
	assert.Equal(t, "Dhuhr", resp.Times[2].Name, "Saturday")
}

func TestTimes_WithoutTranslator(t *testing.T) {
	srv := NewCalendarServer("", "0")
	srv.Clock = MockClock{CurrentTime: fridayMorning}

	resp := decodeTimes(t, serve(srv, httptest.NewRequest(http.MethodGet, config.RouteTimes+"?"+beirutQuery, nil)))

	assert.Empty(t, resp.Language)
	assert.Equal(t, "Jumua", resp.Times[2].Name)
	assert.Equal(t, "Fajr", resp.Times[7].Name)
}

func TestTimes_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"Missing coordinates", http.MethodGet, "?method=Egyptian", "", http.StatusBadRequest},
		{"Bad latitude", http.MethodGet, "?lat=north&lon=10", "", http.StatusBadRequest},
		{"Latitude out of range", http.MethodGet, "?lat=91&lon=10", "", http.StatusBadRequest},
		{"Unknown method", http.MethodGet, "?lat=10&lon=10&method=Lunar", "", http.StatusBadRequest},
		{"Impossible date", http.MethodGet, "?lat=10&lon=10&date=2023-02-29", "", http.StatusBadRequest},
		{"Unknown zone", http.MethodGet, "?" + beirutQuery + "&tz=Nowhere/City", "", http.StatusBadRequest},
		{"Polar day", http.MethodGet, "?lat=69.6492&lon=18.9553&date=2016-06-21", "", http.StatusUnprocessableEntity},
		{"Unordered summer night", http.MethodGet, "?lat=51.5074&lon=-0.1278&method=MuslimWorldLeague&date=2016-06-21", "", http.StatusUnprocessableEntity},
		{"Bad JSON", http.MethodPost, "", `{"coordinates":`, http.StatusBadRequest},
		{"Missing date fields", http.MethodPost, "", `{"coordinates":{"latitude":10,"longitude":10},"date":{}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTimesServer(t, fridayMorning)
			req := httptest.NewRequest(tt.method, config.RouteTimes+tt.target, strings.NewReader(tt.body))
			w := serve(srv, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, config.MimeJSON, w.Header().Get(config.HeaderContentType))

			var body errorBody
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTimes_MethodNotAllowed(t *testing.T) {
	w := serve(newTimesServer(t, fridayMorning), httptest.NewRequest(http.MethodDelete, config.RouteTimes, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, config.AllowedMethodsAPI, w.Header().Get(config.HeaderAllow))
}
