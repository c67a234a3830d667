package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	batchesTotal       *prometheus.CounterVec
	batchesTruncated   prometheus.Counter
	signalsGenerated   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	exportsTotal       *prometheus.CounterVec
	jobsActive         *prometheus.GaugeVec
	marketRequests     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsig_batches_total",
			Help: "Total number of batch requests by outcome and rejection code",
		},
		[]string{"outcome", "code"},
	)
	r.batchesTruncated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "binsig_batches_truncated_total",
			Help: "Batches that ended with fewer records than requested",
		},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsig_signals_generated_total",
			Help: "Total number of signal records generated",
		},
		[]string{"direction"},
	)
	r.generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "binsig_generation_duration_seconds",
			Help:    "Time from accepted request to stored batch, including the configured delay",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 3, 5, 10},
		},
	)
	r.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsig_exports_total",
			Help: "Total number of text exports",
		},
		[]string{"archived"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "binsig_jobs_active",
			Help: "Number of generation jobs by status",
		},
		[]string{"status"},
	)
	r.marketRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binsig_market_requests_total",
			Help: "Requests served by the simulated market-data endpoints",
		},
		[]string{"endpoint"},
	)

	reg.MustRegister(r.batchesTotal)
	reg.MustRegister(r.batchesTruncated)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.generationDuration)
	reg.MustRegister(r.exportsTotal)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.marketRequests)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBatch records a generated batch.
func (r *Registry) RecordBatch(directions map[string]int, truncated bool, duration float64) {
	r.batchesTotal.WithLabelValues("generated", "").Inc()
	for dir, n := range directions {
		r.signalsGenerated.WithLabelValues(dir).Add(float64(n))
	}
	if truncated {
		r.batchesTruncated.Inc()
	}
	r.generationDuration.Observe(duration)
}

// RecordRejection records a batch request rejected with the given error code.
func (r *Registry) RecordRejection(code string) {
	r.batchesTotal.WithLabelValues("rejected", code).Inc()
}

// RecordExport records a text export.
func (r *Registry) RecordExport(archived bool) {
	r.exportsTotal.WithLabelValues(strconv.FormatBool(archived)).Inc()
}

// SetJobsActive sets the number of jobs in a status.
func (r *Registry) SetJobsActive(status string, count int) {
	r.jobsActive.WithLabelValues(status).Set(float64(count))
}

// RecordMarketRequest records a request to a simulated market endpoint.
func (r *Registry) RecordMarketRequest(endpoint string) {
	r.marketRequests.WithLabelValues(endpoint).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
