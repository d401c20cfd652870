package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the Jobni Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobni",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobni",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobni",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	applicationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobni",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Application status transitions applied.",
		},
		[]string{"from", "to"},
	)

	sideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobni",
			Subsystem: "workflow",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort workflow steps that failed.",
		},
		[]string{"step"},
	)

	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobni",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the publisher.",
		},
		[]string{"topic", "success"},
	)

	streamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobni",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Open SSE and WebSocket subscriptions.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applicationTransitions,
		sideEffectFailures,
		eventsPublished,
		streamSubscribers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := NewStatusRecorder(w)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := CanonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordTransition counts an applied application status change.
func RecordTransition(from, to string) {
	applicationTransitions.WithLabelValues(from, to).Inc()
}

// RecordSideEffectFailure counts a failed best-effort workflow step.
func RecordSideEffectFailure(step string) {
	sideEffectFailures.WithLabelValues(step).Inc()
}

// RecordEvent counts a domain event publish attempt.
func RecordEvent(topic string, success bool) {
	eventsPublished.WithLabelValues(topic, strconv.FormatBool(success)).Inc()
}

// SubscriberOpened and SubscriberClosed track live stream subscriptions.
func SubscriberOpened() { streamSubscribers.Inc() }
func SubscriberClosed() { streamSubscribers.Dec() }

// CanonicalPath collapses identifier segments so that label cardinality
// stays bounded: /api/jobs/<uuid> becomes /api/jobs/:id.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
