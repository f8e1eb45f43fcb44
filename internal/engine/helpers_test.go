package engine

import (
	"math"
	"time"

	"github.com/miradorstack/mirador-triage/internal/models"
)

var testNow = time.Date(2024, 4, 28, 10, 0, 0, 0, time.UTC)

func newAlert(id string, sev models.Severity, service, component string, value, threshold float64) models.Alert {
	return models.Alert{
		ID:          id,
		Timestamp:   testNow.Add(-10 * time.Minute),
		Service:     service,
		Component:   component,
		Severity:    sev,
		Metric:      "latency_ms",
		Value:       value,
		Threshold:   threshold,
		Description: id,
	}
}

// scenarioBatch is the payments/auth batch used across scorer and pipeline tests.
func scenarioBatch() []models.Alert {
	return []models.Alert{
		newAlert("A", models.SeverityCritical, "payments", "gateway", 2300, 1000),
		newAlert("B", models.SeverityWarning, "payments", "gateway", 1100, 1000),
		newAlert("C", models.SeverityInfo, "auth", "login", 50, 100),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ids(alerts []models.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
