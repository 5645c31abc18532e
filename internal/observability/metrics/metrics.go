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

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchRequestsTotal  *prometheus.CounterVec
	searchDocsReturned   *prometheus.HistogramVec
	dedupDroppedTotal    *prometheus.CounterVec
	answerRunsTotal      *prometheus.CounterVec
	answerDuration       *prometheus.HistogramVec
	citationsResolved    *prometheus.HistogramVec
	malformedPacketTotal *prometheus.CounterVec
	feedPacketsTotal     *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sgw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sgw",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total successful search requests by endpoint.",
		},
		[]string{"service", "endpoint"},
	)
	searchDocsReturned := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sgw",
			Subsystem: "search",
			Name:      "documents_returned",
			Help:      "Distribution of documents returned per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"service", "endpoint"},
	)
	dedupDroppedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "search",
			Name:      "dedup_dropped_total",
			Help:      "Total duplicate documents dropped during reconciliation.",
		},
		[]string{"service", "endpoint"},
	)
	answerRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "answer",
			Name:      "runs_total",
			Help:      "Total answer feed consumptions by terminal status.",
		},
		[]string{"service", "status"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sgw",
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "Answer feed consumption duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	citationsResolved := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sgw",
			Subsystem: "answer",
			Name:      "citations_resolved",
			Help:      "Distribution of resolved citations per answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	malformedPacketTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "answer",
			Name:      "malformed_packets_total",
			Help:      "Total feed units skipped as malformed.",
		},
		[]string{"service"},
	)
	feedPacketsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sgw",
			Subsystem: "answer",
			Name:      "feed_packets_total",
			Help:      "Total applied feed packets by kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchRequestsTotal,
		searchDocsReturned,
		dedupDroppedTotal,
		answerRunsTotal,
		answerDuration,
		citationsResolved,
		malformedPacketTotal,
		feedPacketsTotal,
	)

	return &Metrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		searchRequestsTotal:  searchRequestsTotal,
		searchDocsReturned:   searchDocsReturned,
		dedupDroppedTotal:    dedupDroppedTotal,
		answerRunsTotal:      answerRunsTotal,
		answerDuration:       answerDuration,
		citationsResolved:    citationsResolved,
		malformedPacketTotal: malformedPacketTotal,
		feedPacketsTotal:     feedPacketsTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Middleware(service string, next http.Handler) http.Handler {
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
	case strings.HasPrefix(path, "/v1/query/document/"):
		return "/v1/query/document/{document_id}"
	case strings.HasPrefix(path, "/v1/query/answer-sessions/"):
		return "/v1/query/answer-sessions/{session_id}"
	default:
		return path
	}
}

func (m *Metrics) RecordSearch(service, endpoint string, docsReturned, dropped int) {
	m.searchRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.searchDocsReturned.WithLabelValues(service, endpoint).Observe(float64(docsReturned))
	if dropped > 0 {
		m.dedupDroppedTotal.WithLabelValues(service, endpoint).Add(float64(dropped))
	}
}

func (m *Metrics) RecordFeedPacket(service, kind string) {
	m.feedPacketsTotal.WithLabelValues(service, kind).Inc()
}

func (m *Metrics) RecordAnswer(service, status string, citations, malformed int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.answerRunsTotal.WithLabelValues(service, status).Inc()
	m.answerDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.citationsResolved.WithLabelValues(service).Observe(float64(citations))
	if malformed > 0 {
		m.malformedPacketTotal.WithLabelValues(service).Add(float64(malformed))
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
