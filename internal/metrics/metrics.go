package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tsundoku",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsundoku",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tsundoku",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	bookResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsundoku",
			Subsystem: "books",
			Name:      "resolutions_total",
			Help:      "Book registrations by resolution outcome.",
		},
		[]string{"outcome", "source"},
	)

	externalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsundoku",
			Subsystem: "external",
			Name:      "calls_total",
			Help:      "Calls to external services by result (ok, degraded, cache_hit).",
		},
		[]string{"service", "result"},
	)

	externalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tsundoku",
			Subsystem: "external",
			Name:      "call_duration_seconds",
			Help:      "Duration of calls to external services.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"service"},
	)

	ogpRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsundoku",
			Subsystem: "ogp",
			Name:      "renders_total",
			Help:      "OGP card responses by kind (rendered, fallback).",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		bookResolutions,
		externalCalls,
		externalDuration,
		ogpRenders,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Routes are labelled with the ServeMux pattern, so it must sit inside any
// middleware that replaces the request.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordBookResolution counts a book registration by outcome (reused, constructed).
func RecordBookResolution(outcome, source string) {
	if source == "" {
		source = "manual"
	}
	bookResolutions.WithLabelValues(outcome, source).Inc()
}

// RecordExternalCall records one call to an external service.
func RecordExternalCall(service, result string, duration time.Duration) {
	externalCalls.WithLabelValues(service, result).Inc()
	if duration > 0 {
		externalDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

func RecordOGPRender(fallback bool) {
	kind := "rendered"
	if fallback {
		kind = "fallback"
	}
	ogpRenders.WithLabelValues(kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	// "GET /books/{id}" -> "/books/{id}"
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}
