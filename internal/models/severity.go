package models

import (
	"fmt"
	"strings"
)

// Severity captures the closed set of alert severities.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

var severityWeights = map[Severity]int{
	SeverityCritical: 10,
	SeverityWarning:  5,
	SeverityInfo:     1,
}

// Severities lists every recognised severity, highest weight first.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityWarning, SeverityInfo}
}

// ParseSeverity normalises s and rejects values outside the closed set.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSeverity, s)
	}
	return sev, nil
}

// Valid reports whether the severity belongs to the closed set.
func (s Severity) Valid() bool {
	_, ok := severityWeights[s]
	return ok
}

// Weight returns the scoring weight of the severity.
func (s Severity) Weight() (int, error) {
	w, ok := severityWeights[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSeverity, string(s))
	}
	return w, nil
}

func (s Severity) String() string {
	return string(s)
}
