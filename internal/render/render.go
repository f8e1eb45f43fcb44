// Package render prints ranked reports for terminals and scripts.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/miradorstack/mirador-triage/internal/models"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts table or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

type Renderer interface {
	Render(w io.Writer, report models.Report) error
}

func New(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &jsonRenderer{}
	default:
		return &tableRenderer{}
	}
}

type jsonRenderer struct{}

func (r *jsonRenderer) Render(w io.Writer, report models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

type tableRenderer struct{}

func (r *tableRenderer) Render(w io.Writer, report models.Report) error {
	s := report.Summary
	fmt.Fprintf(w, "Alerts: %d loaded, %d after filtering\n", s.TotalAlerts, s.FilteredAlerts)
	if s.TimeRange != nil {
		fmt.Fprintf(w, "Window: %s .. %s\n",
			s.TimeRange.Earliest.UTC().Format(time.RFC3339),
			s.TimeRange.Latest.UTC().Format(time.RFC3339))
	}
	if len(s.SeverityDistribution) > 0 {
		fmt.Fprintf(w, "Severities: %s\n", severityLine(s.SeverityDistribution))
	}
	fmt.Fprintf(w, "Overall priority: %.1f\n\n", s.OverallPriority)

	if len(report.Incidents) == 0 {
		fmt.Fprintln(w, "No incidents.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tSERVICE\tCOMPONENT\tALERTS\tSEVERITY\tAVG DEV %%\tGROUPS\tPRIORITY\n")
	for _, inc := range report.Incidents {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%.1f\t%d\t%.1f\n",
			inc.Rank,
			inc.Service,
			inc.Component,
			inc.AlertCount,
			inc.SeverityScore,
			inc.AverageDeviation,
			inc.DistinctGroups,
			inc.Priority,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, inc := range report.Incidents {
		fmt.Fprintf(w, "\n--- #%d %s/%s ---\n", inc.Rank, inc.Service, inc.Component)
		if len(inc.Alerts) > 0 {
			for _, a := range inc.Alerts {
				fmt.Fprintf(w, "  %s\n", alertLine(a))
			}
		} else {
			fmt.Fprintf(w, "Alerts: %s\n", strings.Join(inc.AlertIDs, ", "))
		}
		if len(inc.ExcludedAlerts) > 0 {
			fmt.Fprintf(w, "Zero threshold, excluded from deviation: %s\n", strings.Join(inc.ExcludedAlerts, ", "))
		}
		if len(inc.Recommendations) > 0 {
			fmt.Fprintf(w, "Next Steps:\n")
			for i, rec := range inc.Recommendations {
				fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
			}
		}
	}
	return nil
}

// alertLine formats one member alert as "id: severity - service/component - metric=value".
func alertLine(a models.Alert) string {
	return fmt.Sprintf("%s: %s - %s/%s - %s=%s", a.ID, a.Severity, a.Service, a.Component, a.Metric,
		strconv.FormatFloat(a.Value, 'f', -1, 64))
}

func severityLine(dist map[models.Severity]int) string {
	parts := make([]string, 0, len(dist))
	for _, sev := range models.Severities() {
		if n, ok := dist[sev]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", sev, n))
		}
	}
	return strings.Join(parts, " ")
}
