package engine

import (
	"fmt"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Summarize reports distributions and the time range of the loaded batch along with the
// number of alerts that survived filtering.
func Summarize(loaded, filtered []models.Alert) models.Summary {
	s := models.Summary{
		TotalAlerts:           len(loaded),
		FilteredAlerts:        len(filtered),
		SeverityDistribution:  make(map[models.Severity]int),
		ServiceDistribution:   make(map[string]int),
		ComponentDistribution: make(map[string]int),
	}
	if len(loaded) == 0 {
		return s
	}

	tr := models.TimeRange{Earliest: loaded[0].Timestamp, Latest: loaded[0].Timestamp}
	for _, a := range loaded {
		s.SeverityDistribution[a.Severity]++
		s.ServiceDistribution[a.Service]++
		s.ComponentDistribution[a.Component]++
		if a.Timestamp.Before(tr.Earliest) {
			tr.Earliest = a.Timestamp
		}
		if a.Timestamp.After(tr.Latest) {
			tr.Latest = a.Timestamp
		}
	}
	s.TimeRange = &tr
	return s
}

// OverallPriority scores the whole batch as a single incident. An empty batch scores 0.
func OverallPriority(alerts []models.Alert) (float64, error) {
	if len(alerts) == 0 {
		return 0, nil
	}
	sevScore, avg, _, err := aggregate(alerts)
	if err != nil {
		return 0, fmt.Errorf("overall priority: %w", err)
	}
	return Priority(sevScore, avg, distinctKeys(alerts)), nil
}
