package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Advancement outcomes.
const (
	outcomeSuccess          = "success"
	outcomeInvalidYears     = "invalid_years"
	outcomeBusy             = "in_progress"
	outcomeNotFound         = "not_found"
	outcomeModelUnavailable = "model_unavailable"
	outcomeStorageError     = "storage_error"
	outcomeInternalError    = "internal_error"
)

var (
	advancementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_advancements_total",
			Help: "Advance-time requests, by outcome.",
		},
		[]string{"outcome", "years"},
	)
	advancementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worldforge_advancement_duration_seconds",
		Help:    "End-to-end duration of successful advancements.",
		Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
	})
	auxFlowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_aux_flows_total",
			Help: "Auxiliary model flows (naming, naming profile, cataclysm, deaths), by flow and outcome.",
		},
		[]string{"flow", "outcome"},
	)
	nameAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldforge_name_attempts_total",
			Help: "Character name generation attempts, by result.",
		},
		[]string{"result"},
	)
)
