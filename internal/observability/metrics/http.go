package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal          *prometheus.CounterVec
	askDuration       *prometheus.HistogramVec
	askSources        *prometheus.HistogramVec
	cacheLookupsTotal *prometheus.CounterVec
	batchFilesTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chattydoc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chattydoc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chattydoc",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chattydoc",
			Subsystem: "qa",
			Name:      "ask_total",
			Help:      "Total answered questions by outcome.",
		},
		[]string{"service", "status"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chattydoc",
			Subsystem: "qa",
			Name:      "ask_duration_seconds",
			Help:      "End-to-end question answering duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	askSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chattydoc",
			Subsystem: "qa",
			Name:      "ask_sources",
			Help:      "Distribution of fused source chunks per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chattydoc",
			Subsystem: "ingest",
			Name:      "cache_lookups_total",
			Help:      "Total chunk cache lookups by result.",
		},
		[]string{"service", "result"},
	)
	batchFilesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chattydoc",
			Subsystem: "ingest",
			Name:      "batch_files_total",
			Help:      "Total ingested files by outcome.",
		},
		[]string{"service", "outcome"},
	)
	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askDuration,
		askSources,
		cacheLookupsTotal,
		batchFilesTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		askTotal:          askTotal,
		askDuration:       askDuration,
		askSources:        askSources,
		cacheLookupsTotal: cacheLookupsTotal,
		batchFilesTotal:   batchFilesTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordAsk(service, status string, sourceCount int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.askTotal.WithLabelValues(service, status).Inc()
	m.askDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.askSources.WithLabelValues(service).Observe(float64(sourceCount))
}

func (m *HTTPServerMetrics) RecordCacheLookups(service string, hits, misses int) {
	if hits > 0 {
		m.cacheLookupsTotal.WithLabelValues(service, "hit").Add(float64(hits))
	}
	if misses > 0 {
		m.cacheLookupsTotal.WithLabelValues(service, "miss").Add(float64(misses))
	}
}

func (m *HTTPServerMetrics) RecordBatchFiles(service string, processed, skipped, failed int) {
	if processed > 0 {
		m.batchFilesTotal.WithLabelValues(service, "processed").Add(float64(processed))
	}
	if skipped > 0 {
		m.batchFilesTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	}
	if failed > 0 {
		m.batchFilesTotal.WithLabelValues(service, "failed").Add(float64(failed))
	}
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
