package mining

import "github.com/prometheus/client_golang/prometheus"

var (
	hashRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperion",
		Name:      "miner_hashrate",
		Help:      "Estimated aggregate hashrate across all workers, in hashes per second.",
	})

	activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperion",
		Name:      "miner_active_workers",
		Help:      "Number of running mining worker goroutines.",
	})

	blocksFound = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "miner_blocks_found_total",
		Help:      "Total mined blocks accepted by the node.",
	})

	blocksSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "miner_block_submissions_total",
		Help:      "Block submission attempts by result.",
	}, []string{"result"})

	workGenerations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "miner_work_generations_total",
		Help:      "Total work generations dispatched to workers.",
	})
)

func init() {
	prometheus.MustRegister(hashRate, activeWorkers, blocksFound, blocksSubmitted, workGenerations)
}
