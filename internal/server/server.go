package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/ibad-al-rahman/azan/internal/config"
	"github.com/ibad-al-rahman/azan/internal/engine"
	"github.com/ibad-al-rahman/azan/internal/metrics"
	"github.com/ibad-al-rahman/azan/internal/prayer"
)

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Translator localizes prayer names in API responses.
type Translator interface {
	Match(prefs ...string) string
	PrayerName(lang string, p prayer.Prayer, ref time.Time) string
}

// CalendarServer serves the generated ICS feed and the prayer times API.
type CalendarServer struct {
	// cache uses atomic.Pointer for lock-free reads: the feed is read by
	// every client poll but only replaced on sync.
	cache atomic.Pointer[cacheItem]

	BindAddr string
	Port     string

	Clock      engine.Clock
	Translator Translator
	Metrics    metrics.Recorder
	Gatherer   prometheus.Gatherer // Nil disables /metrics.

	// DefaultMethod is used by /times when the request names none.
	DefaultMethod string

	// Location renders /times answers when the request has no tz.
	// Nil means UTC.
	Location *time.Location

	// RateLimit and RateBurst bound /times per client. A zero RateLimit
	// disables limiting.
	RateLimit rate.Limit
	RateBurst int

	limiter *clientLimiter
}

// NewCalendarServer creates a server listening on bindAddr:port.
func NewCalendarServer(bindAddr, port string) *CalendarServer {
	if bindAddr == "" {
		bindAddr = config.LocalhostBindAddr
	}
	return &CalendarServer{
		BindAddr:      bindAddr,
		Port:          port,
		Clock:         engine.RealClock{},
		DefaultMethod: config.DefaultMethod,
	}
}

// Handler builds the router. It must be called once, before serving.
func (s *CalendarServer) Handler() http.Handler {
	if s.Clock == nil {
		s.Clock = engine.RealClock{}
	}
	if s.RateLimit > 0 {
		s.limiter = newClientLimiter(s.RateLimit, s.RateBurst)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(config.HeaderAllow, config.AllowedMethodsAPI)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	})

	r.HandleFunc(config.RouteRoot, s.handleCalendarRequest)
	r.HandleFunc(config.RouteCalendar, s.handleCalendarRequest)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get(config.RouteTimes, s.handleTimes)
		r.Post(config.RouteTimes, s.handleTimes)
	})

	r.Get(config.RouteHealth, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, config.HTTPMsgOK)
	})
	if s.Gatherer != nil {
		r.Handle(config.RouteMetrics, metrics.Handler(s.Gatherer))
	}
	return r
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if err := config.ValidatePort(s.Port); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         s.BindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	if s.limiter != nil {
		go s.limiter.cleanupLoop(ctx, config.RateLimiterIdleTTL)
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed.
func (s *CalendarServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	// Keep Last-Modified when the content did not change, so that
	// conditional requests keep matching across identical refreshes.
	lastMod := time.Now().UTC().Format(http.TimeFormat)
	if prev := s.cache.Load(); prev != nil && prev.etag == etag {
		lastMod = prev.lastModified
	}

	s.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: lastMod,
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCalendarRequest serves the ICS content with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// instrument records one request metric per response, labelled with the
// matched route pattern.
func (s *CalendarServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if s.Metrics == nil {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Metrics.RecordRequest(routeLabel(r), status)
	})
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return config.RouteUnmatched
}
