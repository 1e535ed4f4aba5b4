package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion metrics
	ingestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repomind_ingestions_total",
			Help: "Total number of repository ingestions",
		},
		[]string{"outcome"},
	)

	ingestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repomind_ingestion_duration_seconds",
			Help:    "Ingestion duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source"},
	)

	contextsTruncated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "repomind_contexts_truncated_total",
			Help: "Contexts that hit the token budget",
		},
	)

	// Acquisition metrics
	filesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repomind_files_fetched_total",
			Help: "Files read into a snapshot",
		},
		[]string{"source"},
	)

	filesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repomind_files_skipped_total",
			Help: "Candidate files dropped after listing",
		},
		[]string{"source", "reason"},
	)

	// Session metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "repomind_active_sessions",
			Help: "Sessions held by the in-memory store",
		},
	)

	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "repomind_sessions_expired_total",
			Help: "Sessions removed by the expiry sweep",
		},
	)

	// Query metrics
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repomind_queries_total",
			Help: "Model calls by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			ingestionsTotal,
			ingestionDuration,
			contextsTruncated,
			filesFetched,
			filesSkipped,
			activeSessions,
			sessionsExpired,
			queriesTotal,
		)
	})
}

// Handler returns an HTTP handler for Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordIngestion records the outcome and duration of one ingestion
func RecordIngestion(source, outcome string, truncated bool, d time.Duration) {
	ingestionsTotal.WithLabelValues(outcome).Inc()
	ingestionDuration.WithLabelValues(source).Observe(d.Seconds())
	if truncated {
		contextsTruncated.Inc()
	}
}

// AddFilesFetched counts files that made it into a snapshot
func AddFilesFetched(source string, n int) {
	filesFetched.WithLabelValues(source).Add(float64(n))
}

// AddFilesSkipped counts dropped candidates by reason
func AddFilesSkipped(source, reason string, n int) {
	if n == 0 {
		return
	}
	filesSkipped.WithLabelValues(source, reason).Add(float64(n))
}

// SetActiveSessions sets the in-memory session gauge
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// AddSessionsExpired counts swept sessions
func AddSessionsExpired(n int) {
	sessionsExpired.Add(float64(n))
}

// RecordQuery records one model call
func RecordQuery(kind, outcome string) {
	queriesTotal.WithLabelValues(kind, outcome).Inc()
}
