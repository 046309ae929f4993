package metrics

import (
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

	// Analysis metrics
	predictionsTotal  *prometheus.CounterVec
	fallbacksTotal    *prometheus.CounterVec
	sentimentTotal    *prometheus.CounterVec
	scoringFailures   prometheus.Counter
	cacheLookups      *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationFailures *prometheus.CounterVec
	refreshCycles     prometheus.Counter
	watchlistSymbols  prometheus.Gauge
	alertsFired       *prometheus.CounterVec
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

	// Analysis metrics
	r.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_predictions_total",
			Help: "Total number of price forecasts by estimator",
		},
		[]string{"estimator"},
	)
	r.fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_prediction_fallbacks_total",
			Help: "Total number of forecasts served by the trend fallback, by reason",
		},
		[]string{"reason"},
	)
	r.sentimentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_sentiment_aggregations_total",
			Help: "Total number of sentiment aggregations by category",
		},
		[]string{"category"},
	)
	r.scoringFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_sentiment_scoring_failures_total",
			Help: "Total number of texts the scorer failed on",
		},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_lookups_total",
			Help: "Total number of cache lookups by artifact and result",
		},
		[]string{"artifact", "result"},
	)
	r.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_operation_duration_seconds",
			Help:    "Duration of analysis operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)
	r.operationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_operation_failures_total",
			Help: "Total number of failed analysis operations by error code",
		},
		[]string{"operation", "code"},
	)
	r.refreshCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_refresh_cycles_total",
			Help: "Total number of watchlist refresh cycles completed",
		},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "insight_watchlist_symbols",
			Help: "Number of symbols in watchlist",
		},
	)
	r.alertsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_alerts_fired_total",
			Help: "Total number of watchlist alerts fired by rule and severity",
		},
		[]string{"rule", "severity"},
	)

	reg.MustRegister(r.predictionsTotal)
	reg.MustRegister(r.fallbacksTotal)
	reg.MustRegister(r.sentimentTotal)
	reg.MustRegister(r.scoringFailures)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.operationDuration)
	reg.MustRegister(r.operationFailures)
	reg.MustRegister(r.refreshCycles)
	reg.MustRegister(r.watchlistSymbols)
	reg.MustRegister(r.alertsFired)

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

// RecordPrediction records a forecast. reason is empty unless the trend
// fallback served it.
func (r *Registry) RecordPrediction(estimator, reason string) {
	r.predictionsTotal.WithLabelValues(estimator).Inc()
	if reason != "" {
		r.fallbacksTotal.WithLabelValues(reason).Inc()
	}
}

// RecordSentiment records a sentiment aggregation and its scorer failures.
func (r *Registry) RecordSentiment(category string, failed int) {
	r.sentimentTotal.WithLabelValues(category).Inc()
	if failed > 0 {
		r.scoringFailures.Add(float64(failed))
	}
}

// RecordCacheLookup records a cache hit or miss for an artifact kind.
func (r *Registry) RecordCacheLookup(artifact string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(artifact, result).Inc()
}

// RecordOperation records how long an operation took. code is empty on
// success, otherwise the core error code.
func (r *Registry) RecordOperation(operation, code string, duration float64) {
	r.operationDuration.WithLabelValues(operation).Observe(duration)
	if code != "" {
		r.operationFailures.WithLabelValues(operation, code).Inc()
	}
}

// RecordRefreshCycle records a watchlist refresh cycle completion.
func (r *Registry) RecordRefreshCycle() {
	r.refreshCycles.Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

// RecordAlert records a fired alert.
func (r *Registry) RecordAlert(rule, severity string) {
	r.alertsFired.WithLabelValues(rule, severity).Inc()
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
