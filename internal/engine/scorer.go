package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Priority weights.
const (
	SeverityWeightFactor  = 0.5
	DeviationWeightFactor = 0.3
	BreadthWeightFactor   = 0.2
)

// GroupScore is the scoring breakdown of one incident group.
type GroupScore struct {
	SeverityScore    int
	AverageDeviation float64
	DistinctGroups   int
	Priority         float64
	// Excluded lists alerts whose deviation is undefined (zero threshold).
	Excluded []string
}

// Deviation returns how far the alert value sits from its threshold, as a percentage.
// A zero threshold yields ErrDivisionByZeroInDeviation; a result outside float64 range
// yields ErrNonFiniteScore.
func Deviation(a models.Alert) (float64, error) {
	if a.Threshold == 0 {
		return 0, fmt.Errorf("alert %s: %w", a.ID, models.ErrDivisionByZeroInDeviation)
	}
	dev := (a.Value - a.Threshold) / a.Threshold * 100
	if !isFinite(dev) {
		return 0, fmt.Errorf("alert %s: deviation of value %g from threshold %g: %w",
			a.ID, a.Value, a.Threshold, models.ErrNonFiniteScore)
	}
	return dev, nil
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Priority combines the three scoring terms.
func Priority(severityScore int, averageDeviation float64, distinctGroups int) float64 {
	return float64(severityScore)*SeverityWeightFactor +
		averageDeviation*DeviationWeightFactor +
		float64(distinctGroups)*BreadthWeightFactor
}

// Score computes the priority of one group. distinctGroups is the batch-wide number of
// incident groups, not a per-group count.
func Score(group models.IncidentGroup, distinctGroups int) (GroupScore, error) {
	sevScore, avg, excluded, err := aggregate(group.Alerts)
	if err != nil {
		return GroupScore{}, fmt.Errorf("score %s: %w", group.Key(), err)
	}
	priority := Priority(sevScore, avg, distinctGroups)
	if !isFinite(priority) {
		return GroupScore{}, fmt.Errorf("score %s: priority: %w", group.Key(), models.ErrNonFiniteScore)
	}
	return GroupScore{
		SeverityScore:    sevScore,
		AverageDeviation: avg,
		DistinctGroups:   distinctGroups,
		Priority:         priority,
		Excluded:         excluded,
	}, nil
}

func aggregate(alerts []models.Alert) (int, float64, []string, error) {
	sevScore := 0
	sum := 0.0
	counted := 0
	var excluded []string

	for _, a := range alerts {
		w, err := a.Severity.Weight()
		if err != nil {
			return 0, 0, nil, fmt.Errorf("alert %s: %w", a.ID, err)
		}
		sevScore += w

		dev, err := Deviation(a)
		if errors.Is(err, models.ErrDivisionByZeroInDeviation) {
			excluded = append(excluded, a.ID)
			continue
		}
		if err != nil {
			return 0, 0, nil, err
		}
		sum += dev
		counted++
	}

	avg := 0.0
	if counted > 0 {
		// Each term is finite but the running sum can still overflow.
		avg = sum / float64(counted)
		if !isFinite(avg) {
			return 0, 0, nil, fmt.Errorf("average deviation: %w", models.ErrNonFiniteScore)
		}
	}
	return sevScore, avg, excluded, nil
}

// Rank scores every group and orders them by priority, highest first. Equal priorities keep
// the grouper's emission order. Ranks start at 1.
func Rank(groups []models.IncidentGroup, distinctGroups int) ([]models.RankedIncident, error) {
	type scored struct {
		index int
		group models.IncidentGroup
		score GroupScore
	}

	all := make([]scored, 0, len(groups))
	for i, g := range groups {
		s, err := Score(g, distinctGroups)
		if err != nil {
			return nil, err
		}
		all = append(all, scored{index: i, group: g, score: s})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score.Priority != all[j].score.Priority {
			return all[i].score.Priority > all[j].score.Priority
		}
		return all[i].index < all[j].index
	})

	ranked := make([]models.RankedIncident, 0, len(all))
	for pos, s := range all {
		ranked = append(ranked, models.RankedIncident{
			Rank:             pos + 1,
			Service:          s.group.Service,
			Component:        s.group.Component,
			AlertCount:       s.group.Len(),
			AlertIDs:         s.group.IDs(),
			Alerts:           append([]models.Alert(nil), s.group.Alerts...),
			SeverityCounts:   s.group.SeverityCounts(),
			SeverityScore:    s.score.SeverityScore,
			AverageDeviation: s.score.AverageDeviation,
			ExcludedAlerts:   s.score.Excluded,
			DistinctGroups:   s.score.DistinctGroups,
			Priority:         s.score.Priority,
		})
	}
	return ranked, nil
}
