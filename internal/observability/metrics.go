package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Label sets are closed enums so cardinality stays fixed.
var (
	// GateDecisions counts analysis admissions by result: allowed|denied.
	GateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneywise_gate_decisions_total",
			Help: "Analysis rate-limit decisions.",
		},
		[]string{"result"},
	)

	// CacheLookups counts analysis cache lookups by result: hit|miss|expired.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneywise_analysis_cache_lookups_total",
			Help: "Analysis cache lookups.",
		},
		[]string{"result"},
	)

	// CacheEntries gauges the current analysis cache size.
	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moneywise_analysis_cache_entries",
			Help: "Entries held by the analysis cache, expired ones included.",
		},
	)

	// GenerationAttempts counts calls to the completion endpoint by result:
	// ok|transient|permanent.
	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneywise_generation_attempts_total",
			Help: "Completion endpoint attempts.",
		},
		[]string{"result"},
	)

	// ReminderOutcomes counts processed reminders by outcome:
	// sent|skipped|failed|error.
	ReminderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moneywise_reminder_outcomes_total",
			Help: "Reminder notification outcomes.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(GateDecisions, CacheLookups, CacheEntries, GenerationAttempts, ReminderOutcomes)
}
