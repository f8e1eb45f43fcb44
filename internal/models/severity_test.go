package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"critical":   SeverityCritical,
		"WARNING":    SeverityWarning,
		"  info  ":   SeverityInfo,
		"Critical\n": SeverityCritical,
	}
	for in, want := range cases {
		got, err := ParseSeverity(in)
		if err != nil {
			t.Fatalf("ParseSeverity(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSeverity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSeverityRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "high", "crit", "fatal"} {
		if _, err := ParseSeverity(in); !errors.Is(err, ErrUnsupportedSeverity) {
			t.Fatalf("ParseSeverity(%q): expected ErrUnsupportedSeverity, got %v", in, err)
		}
	}
}

func TestSeverityWeight(t *testing.T) {
	want := map[Severity]int{SeverityCritical: 10, SeverityWarning: 5, SeverityInfo: 1}
	for _, sev := range Severities() {
		w, err := sev.Weight()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", sev, err)
		}
		if w != want[sev] {
			t.Fatalf("%s weight = %d, want %d", sev, w, want[sev])
		}
	}

	if _, err := Severity("high").Weight(); !errors.Is(err, ErrUnsupportedSeverity) {
		t.Fatalf("expected ErrUnsupportedSeverity for unknown severity, got %v", err)
	}
}

func TestIncidentGroupSeverityCounts(t *testing.T) {
	g := IncidentGroup{
		Service:   "payments",
		Component: "gateway",
		Alerts: []Alert{
			{ID: "a", Severity: SeverityCritical},
			{ID: "b", Severity: SeverityWarning},
			{ID: "c", Severity: SeverityCritical},
		},
	}
	counts := g.SeverityCounts()
	if counts[SeverityCritical] != 2 || counts[SeverityWarning] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if g.Key().String() != "payments/gateway" {
		t.Fatalf("unexpected key: %s", g.Key())
	}
	if ids := g.IDs(); len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestMalformedAlertErrorMessage(t *testing.T) {
	err := &MalformedAlertError{Index: 2, ID: "alert-3", Field: "threshold", Reason: "missing"}
	want := `malformed alert 2 (id "alert-3"): field "threshold": missing`
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}

	anon := &MalformedAlertError{Index: 0, Field: "id", Reason: "missing"}
	if anon.Error() != `malformed alert 0: field "id": missing` {
		t.Fatalf("unexpected message: %q", anon.Error())
	}
}

func TestIsInvalidInput(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("boom"), false},
		{&MalformedAlertError{Index: 0, Field: "id", Reason: "missing"}, true},
		{fmt.Errorf("load alerts: %w", &MalformedAlertError{Index: 1, Field: "value", Reason: "not a number"}), true},
		{&InvalidFilterConfigurationError{Option: "severities", Reason: "unknown"}, true},
		{fmt.Errorf("%w: missing key", ErrInvalidPayload), true},
		{ErrDivisionByZeroInDeviation, false},
	}
	for _, tc := range cases {
		if got := IsInvalidInput(tc.err); got != tc.want {
			t.Fatalf("IsInvalidInput(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
