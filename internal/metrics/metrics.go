// Package metrics defines the collector interface the aggregation engine
// and sync coordinator report into. The default is a no-op; the Prometheus
// implementation lives alongside it.
package metrics

import "time"

// Collector receives operational measurements from the core components.
type Collector interface {
	// RecordAggregateDelta counts one incremental delta applied to a
	// budget's aggregate, labeled by the operation that produced it
	// (create, update, delete, sync).
	RecordAggregateDelta(op string)

	// ObserveRecompute records one full aggregate recompute and the number
	// of ledger rows it scanned.
	ObserveRecompute(duration time.Duration, transactions int)

	// ObserveSyncBatch records one bulk sync: batch size, number of budgets
	// whose aggregates were touched, and wall time.
	ObserveSyncBatch(size, budgets int, duration time.Duration)

	// RecordProviderRequest records one call to the financial-data
	// provider.
	RecordProviderRequest(success bool, duration time.Duration)
}

// NoOp discards all measurements. Used wherever metrics are not wired.
type NoOp struct{}

func (NoOp) RecordAggregateDelta(string) {}

func (NoOp) ObserveRecompute(time.Duration, int) {}

func (NoOp) ObserveSyncBatch(int, int, time.Duration) {}

func (NoOp) RecordProviderRequest(bool, time.Duration) {}
