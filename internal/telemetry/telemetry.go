// Package telemetry exposes Prometheus instruments for the sync pipeline.
package telemetry

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planning_sync_scrapes_total",
			Help: "Total scrape attempts, labeled by backend, content kind and result.",
		},
		[]string{"backend", "kind", "result"},
	)

	scrapeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planning_sync_scrape_duration_seconds",
			Help:    "Histogram of scrape latencies, labeled by backend and content kind.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"backend", "kind"},
	)

	clientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planning_sync_client_requests_total",
			Help: "Total outbound HTTP requests, labeled by host, method and code.",
		},
		[]string{"host", "method", "code"},
	)

	clientRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planning_sync_client_retries_total",
			Help: "Total outbound request retries, labeled by host.",
		},
		[]string{"host"},
	)

	rateLimitWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planning_sync_rate_limit_wait_seconds",
			Help:    "Histogram of time spent waiting on the outbound rate gate.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"host"},
	)

	indexUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planning_sync_index_uploads_total",
			Help: "Total index uploads, labeled by MIME type and result.",
		},
		[]string{"mime", "result"},
	)

	challengePollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planning_sync_challenge_polls_total",
			Help: "Total bot-challenge poll iterations spent waiting for pages to clear.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total ops-server HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of ops-server HTTP latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records ops-server request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.statusCode)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// HostLabel extracts a lowercase hostname for use as a metric label.
func HostLabel(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveScrape records one scrape attempt.
func ObserveScrape(backend, kind string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	scrapesTotal.WithLabelValues(backend, kind, result).Inc()
	scrapeDurationSeconds.WithLabelValues(backend, kind).Observe(duration.Seconds())
}

// ObserveClientRequest records one outbound HTTP attempt. Connection-level
// failures report code 0.
func ObserveClientRequest(rawURL, method string, code int) {
	clientRequestsTotal.WithLabelValues(HostLabel(rawURL), method, strconv.Itoa(code)).Inc()
}

// ObserveClientRetry records an outbound retry.
func ObserveClientRetry(rawURL string) {
	clientRetriesTotal.WithLabelValues(HostLabel(rawURL)).Inc()
}

// ObserveRateLimitWait records time spent blocked on the rate gate.
func ObserveRateLimitWait(rawURL string, duration time.Duration) {
	rateLimitWaitSeconds.WithLabelValues(HostLabel(rawURL)).Observe(duration.Seconds())
}

// ObserveIndexUpload records one index publish attempt.
func ObserveIndexUpload(mime string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	indexUploadsTotal.WithLabelValues(mime, result).Inc()
}

// ObserveChallengePoll records one bot-challenge wait iteration.
func ObserveChallengePoll() {
	challengePollsTotal.Inc()
}
