package sweep

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	processedTotal *prometheus.CounterVec
	batchSeconds   *prometheus.HistogramVec
	leader         *prometheus.GaugeVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		processedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweep",
			Name:      "processed_total",
			Help:      "Total number of items processed by a sweep.",
		}, []string{"sweep", "result"}),
		batchSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sweep",
			Name:      "batch_seconds",
			Help:      "Duration of non-empty sweep batches.",
			Buckets: []float64{
				0.01, 0.05, 0.1, 0.5,
				1, 2, 5, 10, 30, 60,
			},
		}, []string{"sweep"}),
		leader: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sweep",
			Name:      "leader",
			Help:      "Whether current instance holds the leader lock for a sweep (1/0).",
		}, []string{"sweep"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
