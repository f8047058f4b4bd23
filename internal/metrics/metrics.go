// Package metrics - Prometheus metrics for the attribute calculation core
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CalculatorCacheHitsTotal counts memoized attribute reads.
	CalculatorCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fit_calculator_cache_hits_total",
		Help: "Total attribute reads served from the per-item volatile cache",
	})

	// CalculatorCacheMissesTotal counts attribute reads that ran the
	// operator pipeline.
	CalculatorCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fit_calculator_cache_misses_total",
		Help: "Total attribute reads that recomputed through the operator pipeline",
	})

	// CalculatorCycleGuardTotal counts self-referential attribute
	// computations caught by the cycle guard.
	CalculatorCycleGuardTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fit_calculator_cycle_guard_total",
		Help: "Total recursive attribute computations short-circuited by the cycle guard",
	})

	// RegisterAffectorsDroppedTotal counts affectors silently dropped due
	// to malformed filter/domain data.
	RegisterAffectorsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fit_register_affectors_dropped_total",
		Help: "Total affectors dropped during registration due to malformed data",
	}, []string{"reason"})

	// RegisterIndexSize tracks the live size of the affection register's
	// affectee index and of its registered-affector set, useful for
	// spotting index-growth regressions.
	RegisterIndexSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fit_register_index_size",
		Help: "Current number of entries in a register index",
	}, []string{"index"})

	// RAHSimulationTicks tracks how many ticks a RAH simulation run took
	// before converging (loop detected or tick cap hit).
	RAHSimulationTicks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fit_rah_simulation_ticks",
		Help:    "Number of ticks a RAH simulation ran before converging",
		Buckets: prometheus.LinearBuckets(0, 50, 10),
	})

	// RAHSimulationLoopDetectedTotal counts runs that converged by finding
	// a repeating cycle rather than exhausting the tick budget.
	RAHSimulationLoopDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fit_rah_simulation_loop_detected_total",
		Help: "Total RAH simulation runs that converged via cycle detection",
	})

	// RAHSimulationFailuresTotal counts runs that aborted with an
	// exception, falling back to unsimulated resonances.
	RAHSimulationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fit_rah_simulation_failures_total",
		Help: "Total RAH simulation runs that failed and fell back to unsimulated resonances",
	})
)
