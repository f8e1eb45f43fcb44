package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveRunLabels(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues(OutcomeSuccess))
	rejected := testutil.ToFloat64(runsTotal.WithLabelValues(OutcomeRejected))

	ObserveRun(time.Millisecond, "anything-else")
	ObserveRun(-time.Second, OutcomeRejected)

	if got := testutil.ToFloat64(runsTotal.WithLabelValues(OutcomeSuccess)); got != before+1 {
		t.Fatalf("success runs = %f, want %f", got, before+1)
	}
	if got := testutil.ToFloat64(runsTotal.WithLabelValues(OutcomeRejected)); got != rejected+1 {
		t.Fatalf("rejected runs = %f, want %f", got, rejected+1)
	}
}

func TestObserveAlertsAndExclusions(t *testing.T) {
	loaded := testutil.ToFloat64(alertsTotal.WithLabelValues(StageLoaded))
	filtered := testutil.ToFloat64(alertsTotal.WithLabelValues(StageFiltered))
	excluded := testutil.ToFloat64(zeroThresholdExclusions)

	ObserveAlerts(5, 2)
	ObserveExclusions(0)
	ObserveExclusions(3)

	if got := testutil.ToFloat64(alertsTotal.WithLabelValues(StageLoaded)); got != loaded+5 {
		t.Fatalf("loaded = %f, want %f", got, loaded+5)
	}
	if got := testutil.ToFloat64(alertsTotal.WithLabelValues(StageFiltered)); got != filtered+2 {
		t.Fatalf("filtered = %f, want %f", got, filtered+2)
	}
	if got := testutil.ToFloat64(zeroThresholdExclusions); got != excluded+3 {
		t.Fatalf("exclusions = %f, want %f", got, excluded+3)
	}
}
