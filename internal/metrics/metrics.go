// Package metrics collects Prometheus metrics for signups, postal lookups
// and HTTP responses.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the application and middleware layers record into.
type Recorder interface {
	RecordSignup(outcome string)
	RecordPostalLookup(result string, duration time.Duration)
	RecordHTTPStatus(method, route string, statusCode int)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	signups       *prometheus.CounterVec
	postalLookups *prometheus.CounterVec
	postalLatency prometheus.Histogram
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cepusers_signups_total",
			Help: "Signup attempts by outcome",
		}, []string{"outcome"}),
		postalLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cepusers_postal_lookups_total",
			Help: "Postal code resolutions by result",
		}, []string{"result"}),
		postalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cepusers_postal_lookup_latency_seconds",
			Help:    "Postal code resolution latency",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cepusers_http_responses_total",
			Help: "HTTP responses by method, route and status code",
		}, []string{"method", "route", "status_code"}),
	}

	reg.MustRegister(c.signups, c.postalLookups, c.postalLatency, c.httpStatus)
	return c
}

func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPostalLookup(result string, duration time.Duration) {
	c.postalLookups.WithLabelValues(result).Inc()
	c.postalLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordHTTPStatus(method, route string, statusCode int) {
	c.httpStatus.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordSignup(string)                      {}
func (Nop) RecordPostalLookup(string, time.Duration) {}
func (Nop) RecordHTTPStatus(string, string, int)     {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
