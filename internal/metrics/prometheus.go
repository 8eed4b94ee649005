package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports engine and sync measurements as Prometheus metrics.
type Prometheus struct {
	aggregateDeltas  *prometheus.CounterVec
	recomputes       prometheus.Histogram
	recomputeScanned prometheus.Counter
	syncBatches      prometheus.Histogram
	syncBatchSize    prometheus.Histogram
	syncBudgets      prometheus.Histogram
	providerRequests *prometheus.CounterVec
	providerLatency  prometheus.Histogram
}

// NewPrometheus creates the collector and registers its metrics with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		aggregateDeltas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_aggregate_deltas_total",
			Help: "Incremental aggregate deltas applied, by originating operation.",
		}, []string{"op"}),
		recomputes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_recompute_duration_seconds",
			Help:    "Full aggregate recompute duration.",
			Buckets: prometheus.DefBuckets,
		}),
		recomputeScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_recompute_transactions_scanned_total",
			Help: "Ledger rows scanned by full recomputes.",
		}),
		syncBatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_sync_batch_duration_seconds",
			Help:    "Bulk sync batch duration.",
			Buckets: prometheus.DefBuckets,
		}),
		syncBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_sync_batch_size",
			Help:    "Transactions per bulk sync batch.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		syncBudgets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_sync_budgets_touched",
			Help:    "Budgets whose aggregates were updated per sync batch.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_provider_requests_total",
			Help: "Calls to the financial-data provider, by outcome.",
		}, []string{"outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_provider_request_duration_seconds",
			Help:    "Financial-data provider request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		p.aggregateDeltas,
		p.recomputes,
		p.recomputeScanned,
		p.syncBatches,
		p.syncBatchSize,
		p.syncBudgets,
		p.providerRequests,
		p.providerLatency,
	)

	return p
}

func (p *Prometheus) RecordAggregateDelta(op string) {
	p.aggregateDeltas.WithLabelValues(op).Inc()
}

func (p *Prometheus) ObserveRecompute(d time.Duration, transactions int) {
	p.recomputes.Observe(d.Seconds())
	p.recomputeScanned.Add(float64(transactions))
}

func (p *Prometheus) ObserveSyncBatch(size, budgets int, d time.Duration) {
	p.syncBatches.Observe(d.Seconds())
	p.syncBatchSize.Observe(float64(size))
	p.syncBudgets.Observe(float64(budgets))
}

func (p *Prometheus) RecordProviderRequest(success bool, d time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.providerRequests.WithLabelValues(outcome).Inc()
	p.providerLatency.Observe(d.Seconds())
}
