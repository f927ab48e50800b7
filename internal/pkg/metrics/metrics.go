package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommentMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kisah_comment_mutations_total",
		Help: "Comment mutations by operation and outcome",
	}, []string{"op", "outcome"})

	StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kisah_comment_store_retries_total",
		Help: "Serializable transactions retried after a write conflict",
	}, []string{"op"})

	TreeAssembly = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kisah_comment_tree_assembly_seconds",
		Help:    "Time spent loading and assembling a subject's comment tree",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	ListCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kisah_comment_list_cache_total",
		Help: "Subject list cache lookups by result",
	}, []string{"result"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kisah_notifications_dropped_total",
		Help: "Comment events dropped because the dispatch queue was full",
	})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kisah_notifications_delivered_total",
		Help: "Notification deliveries by type and outcome",
	}, []string{"type", "outcome"})
)

// Outcome turns an error into the label value used by the counters above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
