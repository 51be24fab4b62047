package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stmkit"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Cell metrics
	CellSwaps   *prometheus.CounterVec
	CellRetries *prometheus.CounterVec
	CellRejects *prometheus.CounterVec

	// Transaction metrics
	TxnCommits  prometheus.Counter
	TxnRetries  prometheus.Counter
	TxnAborts   *prometheus.CounterVec
	TxnAttempts prometheus.Histogram
	TxnDuration prometheus.Histogram

	// Agent metrics
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	AgentFailures  *prometheus.CounterVec
	AgentRestarts  *prometheus.CounterVec

	// Ledger metrics
	Transfers   *prometheus.CounterVec
	RateLimited prometheus.Counter
}

// NewRegistry creates a registry with every stmkit metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CellSwaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cell",
			Name:      "swaps_total",
			Help:      "Successful cell updates.",
		}, []string{"cell"}),
		CellRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cell",
			Name:      "retries_total",
			Help:      "Compare-and-swap races lost by cell updates.",
		}, []string{"cell"}),
		CellRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cell",
			Name:      "rejects_total",
			Help:      "Cell updates refused by the validator.",
		}, []string{"cell"}),

		TxnCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stm",
			Name:      "commits_total",
			Help:      "Committed transactions.",
		}),
		TxnRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stm",
			Name:      "retries_total",
			Help:      "Transaction attempts discarded because of a conflict.",
		}),
		TxnAborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stm",
			Name:      "aborts_total",
			Help:      "Transactions that ended without committing.",
		}, []string{"reason"}),
		TxnAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stm",
			Name:      "attempts",
			Help:      "Attempts per committed transaction.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		}),
		TxnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stm",
			Name:      "duration_seconds",
			Help:      "Time from first attempt to commit.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),

		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "actions_total",
			Help:      "Agent actions processed.",
		}, []string{"class", "result"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "action_duration_seconds",
			Help:      "Agent action run time.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"class"}),
		AgentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "failures_total",
			Help:      "Agents stopped by a failed action.",
		}, []string{"agent"}),
		AgentRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "restarts_total",
			Help:      "Agent restarts.",
		}, []string{"agent"}),

		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transfers_total",
			Help:      "Ledger transfers by result.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rate_limited_total",
			Help:      "Operations refused by the ledger limiter.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.CellSwaps, r.CellRetries, r.CellRejects,
		r.TxnCommits, r.TxnRetries, r.TxnAborts, r.TxnAttempts, r.TxnDuration,
		r.ActionsTotal, r.ActionDuration, r.AgentFailures, r.AgentRestarts,
		r.Transfers, r.RateLimited,
	)
	return r
}

// Register adds an extra collector, such as a DispatcherCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
