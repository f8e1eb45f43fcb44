package models

import "time"

// FilterConfig narrows a batch. Zero values mean no restriction.
type FilterConfig struct {
	Severities    []string `json:"severities,omitempty" yaml:"severities"`
	Service       string   `json:"service,omitempty" yaml:"service"`
	WithinMinutes *int     `json:"within_minutes,omitempty" yaml:"withinMinutes"`
}

// IsZero reports whether no predicate is configured.
func (c FilterConfig) IsZero() bool {
	return len(c.Severities) == 0 && c.Service == "" && c.WithinMinutes == nil
}

// RankRequest is a host-level request to rank one batch.
type RankRequest struct {
	Payload map[string]any
	Filter  FilterConfig
	Now     time.Time
}
