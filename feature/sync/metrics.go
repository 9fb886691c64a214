package sync

import "media-sync/core/metrics"

const subsystem = "sync"

var (
	runsTotal = metrics.NewCounter(
		"runs_total",
		subsystem,
		"Number of sync passes by pass and outcome",
		[]string{"pass", "outcome"},
	)
	passDuration = metrics.NewHistogram(
		"pass_duration_seconds",
		subsystem,
		"Time spent inside the gate by pass",
		[]string{"pass"},
	)
	commitFailures = metrics.NewCounter(
		"commit_failures_total",
		subsystem,
		"Number of rolled back commits by failing step",
		[]string{"step"},
	)
	anomaliesTotal = metrics.NewCounter(
		"anomalies_total",
		subsystem,
		"Number of records skipped as data integrity anomalies by kind",
		[]string{"kind"},
	)
	duplicatesTotal = metrics.NewCounter(
		"duplicates_total",
		subsystem,
		"Number of duplicate device sightings discarded",
		[]string{},
	).WithLabelValues()
	gateWaiting = metrics.NewGauge(
		"gate_waiting",
		"",
		"Number of sync passes queued behind the running one",
		[]string{},
	).WithLabelValues()
)
