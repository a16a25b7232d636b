package server

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ibad-al-rahman/azan/internal/config"
)

type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientEntry
}

func newClientLimiter(limit rate.Limit, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limit:   limit,
		burst:   burst,
		clients: make(map[string]*clientEntry),
	}
}

func (l *clientLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[client]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = e
	}
	e.lastAccess = now
	return e.limiter.AllowN(now, 1)
}

// retryAfter is the number of whole seconds until one token is refilled.
func (l *clientLimiter) retryAfter() string {
	sec := int(math.Ceil(1.0 / float64(l.limit)))
	if sec < 1 {
		sec = 1
	}
	return strconv.Itoa(sec)
}

// cleanup drops clients idle for longer than ttl.
func (l *clientLimiter) cleanup(now time.Time, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for client, e := range l.clients {
		if now.Sub(e.lastAccess) > ttl {
			delete(l.clients, client)
		}
	}
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *clientLimiter) cleanupLoop(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.cleanup(now, ttl)
		case <-ctx.Done():
			return
		}
	}
}

// rateLimit rejects requests beyond the per-client allowance with 429.
func (s *CalendarServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		client := clientAddr(r)
		if !s.limiter.allow(client, time.Now()) {
			route := routeLabel(r)
			slog.Warn(config.MsgRateLimited,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyClient, client,
				config.LogKeyRoute, route,
			)
			if s.Metrics != nil {
				s.Metrics.RecordRateLimited(route)
			}
			w.Header().Set(config.HeaderRetryAfter, s.limiter.retryAfter())
			writeError(w, http.StatusTooManyRequests, config.HTTPMsgTooMany)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr is the remote IP of r, without port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
