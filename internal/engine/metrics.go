package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	racesDefaultedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_races_defaulted_total",
			Help: "Races that received a synthesized uneventful result, by reason.",
		},
		[]string{"reason"},
	)

	schemaDriftTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_schema_drift_total",
			Help: "Race result fields repaired after a contract violation, by field.",
		},
		[]string{"field"},
	)

	danglingReferencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_dangling_references_total",
			Help: "Model references to unknown characters, races or tiles that were skipped, by kind.",
		},
		[]string{"kind"},
	)

	emergenceViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worldforge_emergence_rule_violations_total",
		Help: "Merges where character emergence ignored the Max 4 or Last Spark rule.",
	})

	mergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worldforge_merge_duration_seconds",
		Help:    "Time spent merging one advancement result into a world.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)
