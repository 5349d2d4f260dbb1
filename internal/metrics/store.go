package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_store_operations_total",
		Help: "Consistency store operations by backend, op, and outcome",
	}, []string{"backend", "op", "outcome"}) // op=get|put|close, outcome=hit|miss|ok|error

	storeEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "geoanonymizer_store_entries",
		Help: "Entries currently held per store backend (where countable)",
	}, []string{"backend"})

	historyPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoanonymizer_history_pruned_total",
		Help: "Run history rows removed by retention pruning",
	})
)

// IncStoreOp records one store operation.
func IncStoreOp(backend, op, outcome string) {
	storeOpsTotal.WithLabelValues(backend, op, outcome).Inc()
}

// SetStoreEntries publishes the current entry count for a backend.
func SetStoreEntries(backend string, n int) {
	storeEntries.WithLabelValues(backend).Set(float64(n))
}

// AddHistoryPruned records rows removed by a retention sweep.
func AddHistoryPruned(n int64) {
	if n > 0 {
		historyPrunedTotal.Add(float64(n))
	}
}
