// Package metrics exposes Prometheus instrumentation for the feed pipeline
// and the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// Recorder is the instrumentation surface used by the engine and the server.
type Recorder interface {
	RecordSync(result string, duration time.Duration)
	RecordFeed(places, events int)
	RecordSkippedDay(reason string)
	RecordRequest(route string, statusCode int)
	RecordRateLimited(route string)
}

// Collector implements Recorder with Prometheus metrics.
type Collector struct {
	syncTotal    *prometheus.CounterVec
	syncDuration prometheus.Histogram
	places       prometheus.Gauge
	events       prometheus.Gauge
	daysSkipped  *prometheus.CounterVec
	requests     *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "sync_total",
			Help:      "Feed synchronizations by result.",
		}, []string{config.LabelResult}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of feed synchronizations.",
			Buckets:   prometheus.DefBuckets,
		}),
		places: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "places",
			Help:      "Places in the last generated feed.",
		}),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "events",
			Help:      "Prayer events in the last generated feed.",
		}),
		daysSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "days_skipped_total",
			Help:      "Place-days left out of the feed because no schedule exists.",
		}, []string{config.LabelReason}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{config.LabelRoute, config.LabelStatus}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{config.LabelRoute}),
	}

	reg.MustRegister(
		c.syncTotal,
		c.syncDuration,
		c.places,
		c.events,
		c.daysSkipped,
		c.requests,
		c.rateLimited,
	)

	return c
}

// RecordSync counts one synchronization and observes its duration.
func (c *Collector) RecordSync(result string, duration time.Duration) {
	c.syncTotal.WithLabelValues(result).Inc()
	c.syncDuration.Observe(duration.Seconds())
}

// RecordFeed sets the size of the last generated feed.
func (c *Collector) RecordFeed(places, events int) {
	c.places.Set(float64(places))
	c.events.Set(float64(events))
}

func (c *Collector) RecordSkippedDay(reason string) {
	c.daysSkipped.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordRequest(route string, statusCode int) {
	c.requests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRateLimited(route string) {
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler serves the metrics gathered by gatherer in the exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
