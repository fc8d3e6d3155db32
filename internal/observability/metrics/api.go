package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	intakeTotal            *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec
	uploadTotal            *prometheus.CounterVec
	reconciliationTotal    *prometheus.CounterVec
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mdp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mdp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mdp",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	intakeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mdp",
			Subsystem: "intake",
			Name:      "operations_total",
			Help:      "Total intake operations by stage and status.",
		},
		[]string{"service", "stage", "status"},
	)
	classificationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mdp",
			Subsystem: "intake",
			Name:      "classification_duration_seconds",
			Help:      "Classification duration in seconds by strategy and outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy", "outcome"},
	)
	uploadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mdp",
			Subsystem: "intake",
			Name:      "uploads_total",
			Help:      "Total artifact uploads by destination.",
		},
		[]string{"service", "destination"},
	)
	reconciliationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mdp",
			Subsystem: "store",
			Name:      "reconciliations_total",
			Help:      "Total mutation reconciliations by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		intakeTotal,
		classificationDuration,
		uploadTotal,
		reconciliationTotal,
	)

	return &APIMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		intakeTotal:            intakeTotal,
		classificationDuration: classificationDuration,
		uploadTotal:            uploadTotal,
		reconciliationTotal:    reconciliationTotal,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *APIMetrics) RecordIntake(service, stage string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.intakeTotal.WithLabelValues(service, stage, status).Inc()
}

func (m *APIMetrics) RecordClassification(service, strategy, outcome string, duration time.Duration) {
	if strategy == "" {
		strategy = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.classificationDuration.WithLabelValues(service, strategy, outcome).Observe(duration.Seconds())
}

func (m *APIMetrics) RecordUpload(service, destination string) {
	if destination == "" {
		destination = "unknown"
	}
	m.uploadTotal.WithLabelValues(service, destination).Inc()
}

func (m *APIMetrics) RecordReconciliation(service, operation, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.reconciliationTotal.WithLabelValues(service, operation, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
