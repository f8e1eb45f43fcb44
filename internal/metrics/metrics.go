package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels runs that produced a report.
	OutcomeSuccess = "success"
	// OutcomeRejected labels runs refused because of malformed input or filter options.
	OutcomeRejected = "rejected"
	// OutcomeError labels runs that failed for any other reason.
	OutcomeError = "error"

	StageLoaded   = "loaded"
	StageFiltered = "filtered"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_triage",
			Name:      "runs_total",
			Help:      "Total number of ranking runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_triage",
			Name:      "run_seconds",
			Help:      "Ranking run latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_triage",
			Name:      "alerts_total",
			Help:      "Alerts seen by the pipeline, partitioned by stage.",
		},
		[]string{"stage"},
	)

	zeroThresholdExclusions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mirador_triage",
			Name:      "zero_threshold_exclusions_total",
			Help:      "Alerts left out of deviation averages because their threshold is zero.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_triage",
			Name:      "cache_lookups_total",
			Help:      "Report cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches mirador-triage collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		alertsTotal,
		zeroThresholdExclusions,
		cacheLookups,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records a run duration and outcome label.
func ObserveRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError && label != OutcomeRejected {
		label = OutcomeSuccess
	}
	runsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveAlerts records how many alerts were loaded and how many survived filtering.
func ObserveAlerts(loaded, filtered int) {
	alertsTotal.WithLabelValues(StageLoaded).Add(float64(loaded))
	alertsTotal.WithLabelValues(StageFiltered).Add(float64(filtered))
}

// ObserveExclusions counts zero-threshold alerts left out of deviation averages.
func ObserveExclusions(n int) {
	if n > 0 {
		zeroThresholdExclusions.Add(float64(n))
	}
}

// ObserveCacheLookup records a report cache lookup result.
func ObserveCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
