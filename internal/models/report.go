package models

import "time"

// RankedIncident is a scored incident group and its position in the ranking.
type RankedIncident struct {
	Rank             int              `json:"rank"`
	Service          string           `json:"service"`
	Component        string           `json:"component"`
	AlertCount       int              `json:"alertCount"`
	AlertIDs         []string         `json:"alertIds"`
	Alerts           []Alert          `json:"alerts,omitempty"`
	SeverityCounts   map[Severity]int `json:"severityCounts"`
	SeverityScore    int              `json:"severityScore"`
	AverageDeviation float64          `json:"averageDeviation"`
	ExcludedAlerts   []string         `json:"excludedAlerts,omitempty"`
	DistinctGroups   int              `json:"distinctGroups"`
	Priority         float64          `json:"priority"`
	Recommendations  []string         `json:"recommendations,omitempty"`
}

// TimeRange bounds the timestamps observed in a batch.
type TimeRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Summary aggregates batch-level statistics.
type Summary struct {
	TotalAlerts           int              `json:"totalAlerts"`
	FilteredAlerts        int              `json:"filteredAlerts"`
	SeverityDistribution  map[Severity]int `json:"severityDistribution"`
	ServiceDistribution   map[string]int   `json:"serviceDistribution"`
	ComponentDistribution map[string]int   `json:"componentDistribution"`
	TimeRange             *TimeRange       `json:"timeRange,omitempty"`
	OverallPriority       float64          `json:"overallPriority"`
}

// Report is the outcome of one pipeline run, incidents ordered by rank.
type Report struct {
	RunID       string           `json:"runId,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Filter      FilterConfig     `json:"filter"`
	Summary     Summary          `json:"summary"`
	Incidents   []RankedIncident `json:"incidents"`
}
