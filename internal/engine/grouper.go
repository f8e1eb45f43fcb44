package engine

import "github.com/miradorstack/mirador-triage/internal/models"

// Group partitions alerts by (service, component). Groups are emitted in the order their key
// is first seen and each group keeps its alerts in input order.
func Group(alerts []models.Alert) []models.IncidentGroup {
	order := make([]models.GroupKey, 0)
	buckets := make(map[models.GroupKey][]models.Alert)

	for _, a := range alerts {
		key := a.Key()
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], a)
	}

	groups := make([]models.IncidentGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, models.IncidentGroup{
			Service:   key.Service,
			Component: key.Component,
			Alerts:    buckets[key],
		})
	}
	return groups
}

// DistinctGroupCount returns the number of distinct incident keys in the batch. The value is
// shared by every group's score as the breadth-of-impact term.
func DistinctGroupCount(groups []models.IncidentGroup) int {
	seen := make(map[models.GroupKey]struct{}, len(groups))
	for _, g := range groups {
		seen[g.Key()] = struct{}{}
	}
	return len(seen)
}

func distinctKeys(alerts []models.Alert) int {
	seen := make(map[models.GroupKey]struct{})
	for _, a := range alerts {
		seen[a.Key()] = struct{}{}
	}
	return len(seen)
}
