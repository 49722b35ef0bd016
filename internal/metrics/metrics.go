// Package metrics exposes the node-side prometheus gauges/counters
// (chain height, block acceptance, persistence, P2P) and the /metrics
// handler. Mining-side metrics (hash rate, blocks found by the miner)
// live in internal/mining, since they're owned by a different process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hyperion",
		Name:      "node_chain_height",
		Help:      "Current height of the node's blockchain.",
	})

	BlocksAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "node_submit_block_total",
		Help:      "submit_block RPC calls by outcome.",
	}, []string{"result"})

	PersistenceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "node_persistence_failures_total",
		Help:      "Failed attempts to write blockchain.dat.",
	})

	P2PBlocksReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hyperion",
		Name:      "node_p2p_blocks_received_total",
		Help:      "Blocks successfully decoded by the P2P listener.",
	})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		BlocksAccepted,
		PersistenceFailures,
		P2PBlocksReceived,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
