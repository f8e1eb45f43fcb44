package models

import "time"

// Alert is a single metric breach report. Alerts are never mutated after loading.
type Alert struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Component   string    `json:"component"`
	Severity    Severity  `json:"severity"`
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Description string    `json:"description"`
}

// Key returns the incident grouping key of the alert.
func (a Alert) Key() GroupKey {
	return GroupKey{Service: a.Service, Component: a.Component}
}

// GroupKey identifies an incident group.
type GroupKey struct {
	Service   string
	Component string
}

func (k GroupKey) String() string {
	return k.Service + "/" + k.Component
}

// IncidentGroup holds the alerts sharing a (service, component) key, in input order.
type IncidentGroup struct {
	Service   string
	Component string
	Alerts    []Alert
}

// Key returns the grouping key.
func (g IncidentGroup) Key() GroupKey {
	return GroupKey{Service: g.Service, Component: g.Component}
}

// Len returns the number of member alerts.
func (g IncidentGroup) Len() int {
	return len(g.Alerts)
}

// SeverityCounts tallies member alerts per severity.
func (g IncidentGroup) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, a := range g.Alerts {
		counts[a.Severity]++
	}
	return counts
}

// IDs returns the member alert ids in group order.
func (g IncidentGroup) IDs() []string {
	ids := make([]string, 0, len(g.Alerts))
	for _, a := range g.Alerts {
		ids = append(ids, a.ID)
	}
	return ids
}
