// Package metrics exposes Prometheus collectors for a harvest run.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Photo outcome labels.
const (
	PhotoDownloaded = "downloaded"
	PhotoCached     = "cached"
	PhotoFailed     = "failed"
)

var (
	registry *prometheus.Registry

	apiRequestsTotal          *prometheus.CounterVec
	apiRequestDurationSeconds *prometheus.HistogramVec
	photosTotal               *prometheus.CounterVec
	photoBytesTotal           *prometheus.CounterVec
	observationsTotal         *prometheus.CounterVec
	recordsExportedTotal      *prometheus.CounterVec
	rateLimitDelaysSeconds    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		factory := promauto.With(registry)

		apiRequestsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inat_api_requests_total",
				Help: "Total number of API requests, labeled by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		)

		apiRequestDurationSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inat_api_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by endpoint.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		)

		photosTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inat_photos_total",
				Help: "Total number of photos handled, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		photoBytesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inat_photo_bytes_total",
				Help: "Total number of photo bytes written, labeled by site.",
			},
			[]string{"site"},
		)

		observationsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inat_observations_total",
				Help: "Total number of observations fetched, labeled by species query.",
			},
			[]string{"species"},
		)

		recordsExportedTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inat_records_exported_total",
				Help: "Total number of records written, labeled by export format.",
			},
			[]string{"format"},
		)

		rateLimitDelaysSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inat_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"limiter"},
		)
	})
}

// Registry returns the registry holding the run's collectors.
func Registry() *prometheus.Registry {
	Init()
	return registry
}

// WriteTextfile dumps the current metrics in the Prometheus text format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveAPIRequest records one API call.
func ObserveAPIRequest(endpoint, outcome string, duration time.Duration) {
	Init()
	apiRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	apiRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObservePhoto records the outcome of one photo acquisition.
func ObservePhoto(site, outcome string, bytesWritten int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	photosTotal.WithLabelValues(sanitizedSite, outcome).Inc()
	if bytesWritten > 0 {
		photoBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesWritten))
	}
}

// ObserveObservations adds fetched observations for a species query.
func ObserveObservations(species string, count int) {
	Init()
	observationsTotal.WithLabelValues(species).Add(float64(count))
}

// ObserveExport adds exported records for the given format.
func ObserveExport(format string, count int) {
	Init()
	recordsExportedTotal.WithLabelValues(format).Add(float64(count))
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(limiter string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(limiter).Observe(duration.Seconds())
}
