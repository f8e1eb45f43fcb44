package engine

import (
	"testing"
	"time"

	"github.com/miradorstack/mirador-triage/internal/models"
)

func TestSummarize(t *testing.T) {
	batch := scenarioBatch()
	batch[0].Timestamp = testNow.Add(-30 * time.Minute)
	batch[2].Timestamp = testNow.Add(-2 * time.Hour)

	s := Summarize(batch, batch[:1])
	if s.TotalAlerts != 3 || s.FilteredAlerts != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.SeverityDistribution[models.SeverityCritical] != 1 || s.SeverityDistribution[models.SeverityInfo] != 1 {
		t.Fatalf("unexpected severity distribution: %v", s.SeverityDistribution)
	}
	if s.ServiceDistribution["payments"] != 2 || s.ComponentDistribution["login"] != 1 {
		t.Fatalf("unexpected distributions: %v %v", s.ServiceDistribution, s.ComponentDistribution)
	}
	if s.TimeRange == nil {
		t.Fatalf("expected time range")
	}
	if !s.TimeRange.Earliest.Equal(testNow.Add(-2*time.Hour)) || !s.TimeRange.Latest.Equal(testNow.Add(-10*time.Minute)) {
		t.Fatalf("unexpected time range: %+v", s.TimeRange)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil)
	if s.TotalAlerts != 0 || s.TimeRange != nil {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestOverallPriority(t *testing.T) {
	p, err := OverallPriority(scenarioBatch())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// severity 16, deviations 130, 10, -50 -> mean 30, two distinct keys
	if !approxEqual(p, 16*0.5+30*0.3+2*0.2) {
		t.Fatalf("overall priority = %f", p)
	}

	empty, err := OverallPriority(nil)
	if err != nil || empty != 0 {
		t.Fatalf("expected 0 for empty batch, got %f (%v)", empty, err)
	}
}
