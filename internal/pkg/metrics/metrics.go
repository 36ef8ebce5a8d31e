package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "okcoin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	chainTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Normalized chain transactions by ingestion outcome.",
		},
		[]string{"outcome"},
	)

	ledgerAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "ledger",
			Name:      "entries_appended_total",
			Help:      "Ledger entries written to the pending log.",
		},
		[]string{"type"},
	)

	ledgerFlushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "ledger",
			Name:      "entries_flushed_total",
			Help:      "Ledger entries moved from the pending log into durable storage.",
		},
	)

	ledgerDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "ledger",
			Name:      "entries_dropped_total",
			Help:      "Ledger entries abandoned because the append queue stayed full.",
		},
		[]string{"type"},
	)

	ledgerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "okcoin",
			Subsystem: "ledger",
			Name:      "queue_depth",
			Help:      "Entries waiting in the in-process append queue.",
		},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "okcoin",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job iterations by outcome.",
		},
		[]string{"job", "status"},
	)

	statsSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "okcoin",
			Subsystem: "stats",
			Name:      "websocket_clients",
			Help:      "Connected live statistics subscribers.",
		},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "okcoin",
			Subsystem: "jobs",
			Name:      "run_duration_seconds",
			Help:      "Duration of background job iterations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"job"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		chainTransactions,
		ledgerAppended,
		ledgerFlushed,
		ledgerDropped,
		ledgerQueueDepth,
		jobRuns,
		jobDuration,
		statsSubscribers,
	)
}

// Handler exposes the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a handled request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordChainTransaction counts one normalized chain record by outcome
// (applied, duplicate, skipped, failed, malformed, error).
func RecordChainTransaction(outcome string) {
	chainTransactions.WithLabelValues(outcome).Inc()
}

// RecordLedgerAppend counts an entry written to the pending log.
func RecordLedgerAppend(entryType string) {
	ledgerAppended.WithLabelValues(entryType).Inc()
}

// RecordLedgerDropped counts an entry that never reached the pending log.
func RecordLedgerDropped(entryType string) {
	ledgerDropped.WithLabelValues(entryType).Inc()
}

// RecordLedgerFlush counts entries persisted by the flush job.
func RecordLedgerFlush(n int) {
	ledgerFlushed.Add(float64(n))
}

// SetLedgerQueueDepth reports the append queue length.
func SetLedgerQueueDepth(n int) {
	ledgerQueueDepth.Set(float64(n))
}

// SetStatsSubscribers reports the number of live statistics websockets.
func SetStatsSubscribers(n int) {
	statsSubscribers.Set(float64(n))
}

// RecordJobRun records one background job iteration.
func RecordJobRun(job string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	jobRuns.WithLabelValues(job, status).Inc()
	jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
