package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	watchFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoanonymizer_watch_files_total",
		Help: "Files picked up by the drop-folder watcher, by outcome",
	}, []string{"outcome"}) // outcome=processed|failed|skipped

	watchQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geoanonymizer_watch_queue_depth",
		Help: "Files currently waiting to settle or be processed",
	})
)

// IncWatchFile records one watched file's outcome.
func IncWatchFile(outcome string) {
	watchFilesTotal.WithLabelValues(outcome).Inc()
}

// SetWatchQueueDepth publishes the watcher's pending file count.
func SetWatchQueueDepth(n int) {
	watchQueueDepth.Set(float64(n))
}
