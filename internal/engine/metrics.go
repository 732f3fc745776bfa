package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectplay_engine_nodes_evaluated_total",
		Help: "Boards evaluated for the first time",
	})

	transpositionHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectplay_engine_transposition_hits_total",
		Help: "Frontier boards that were already in the table",
	})

	propagationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectplay_engine_propagation_updates_total",
		Help: "Ancestor values changed by retrograde propagation",
	})

	reroots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectplay_engine_reroots_total",
		Help: "Root positions received from the game",
	})

	tableSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connectplay_engine_table_size",
		Help: "Boards held in the transposition table",
	})

	frontierSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connectplay_engine_frontier_size",
		Help: "Boards queued for the current root",
	})
)
