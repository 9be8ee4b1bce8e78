package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billwatch_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billwatch_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"path"},
	)

	// RowsParsed counts source rows that became transactions
	RowsParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billwatch_rows_parsed_total",
			Help: "Source rows successfully normalized into transactions",
		},
	)

	// RowsDropped counts source rows excluded as non-transactions
	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billwatch_rows_dropped_total",
			Help: "Source rows dropped during normalization",
		},
	)

	// FilesFailed counts files rejected as structurally unparseable
	FilesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billwatch_files_failed_total",
			Help: "Source files rejected as structurally unparseable",
		},
	)

	// DetectRuns counts recurring-detection runs
	DetectRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billwatch_detect_runs_total",
			Help: "Total recurring-detection runs",
		},
	)

	// DetectDuration tracks recurring-detection duration
	DetectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billwatch_detect_duration_seconds",
			Help:    "Recurring-detection run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// statusRecorder captures the response code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware collects Prometheus metrics for every request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		ActiveRequests.WithLabelValues(path).Inc()
		defer ActiveRequests.WithLabelValues(path).Dec()

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(path, strconv.Itoa(recorder.status)).Inc()
	})
}
