package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// MaxWithinMinutes is the widest recency window a time.Duration can express.
const MaxWithinMinutes = int64(math.MaxInt64 / int64(time.Minute))

type predicate func(models.Alert) bool

// ValidateFilter checks that every configured option can be applied.
func ValidateFilter(cfg models.FilterConfig, now time.Time) error {
	_, err := compileFilter(cfg, now)
	return err
}

// Filter keeps the alerts that satisfy every configured predicate. The input is never
// modified and surviving alerts keep their relative order.
func Filter(alerts []models.Alert, cfg models.FilterConfig, now time.Time) ([]models.Alert, error) {
	preds, err := compileFilter(cfg, now)
	if err != nil {
		return nil, err
	}

	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if matchesAll(a, preds) {
			out = append(out, a)
		}
	}
	return out, nil
}

func matchesAll(a models.Alert, preds []predicate) bool {
	for _, p := range preds {
		if !p(a) {
			return false
		}
	}
	return true
}

func compileFilter(cfg models.FilterConfig, now time.Time) ([]predicate, error) {
	var preds []predicate

	if len(cfg.Severities) > 0 {
		allowed := make(map[models.Severity]struct{}, len(cfg.Severities))
		for _, s := range cfg.Severities {
			sev, err := models.ParseSeverity(s)
			if err != nil {
				return nil, &models.InvalidFilterConfigurationError{
					Option: "severities",
					Reason: fmt.Sprintf("unrecognised severity %q", s),
				}
			}
			allowed[sev] = struct{}{}
		}
		preds = append(preds, func(a models.Alert) bool {
			_, ok := allowed[a.Severity]
			return ok
		})
	}

	if cfg.Service != "" {
		service := cfg.Service
		preds = append(preds, func(a models.Alert) bool {
			return a.Service == service
		})
	}

	if cfg.WithinMinutes != nil && *cfg.WithinMinutes != 0 {
		minutes := *cfg.WithinMinutes
		if minutes < 0 {
			return nil, &models.InvalidFilterConfigurationError{
				Option: "within_minutes",
				Reason: fmt.Sprintf("must not be negative, got %d", minutes),
			}
		}
		if int64(minutes) > MaxWithinMinutes {
			return nil, &models.InvalidFilterConfigurationError{
				Option: "within_minutes",
				Reason: fmt.Sprintf("must be at most %d, got %d", MaxWithinMinutes, minutes),
			}
		}
		if now.IsZero() {
			return nil, &models.InvalidFilterConfigurationError{
				Option: "within_minutes",
				Reason: "a reference time is required",
			}
		}
		cutoff := now.Add(-time.Duration(minutes) * time.Minute)
		preds = append(preds, func(a models.Alert) bool {
			return !a.Timestamp.Before(cutoff)
		})
	}

	return preds, nil
}
