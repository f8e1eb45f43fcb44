package engine

import (
	"reflect"
	"testing"

	"github.com/miradorstack/mirador-triage/internal/models"
)

func TestGroupEmptyInput(t *testing.T) {
	groups := Group(nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
	if DistinctGroupCount(groups) != 0 {
		t.Fatalf("expected zero distinct groups")
	}
}

func TestGroupStableEmissionOrder(t *testing.T) {
	batch := []models.Alert{
		newAlert("1", models.SeverityInfo, "search", "index", 1, 1),
		newAlert("2", models.SeverityCritical, "auth", "login", 1, 1),
		newAlert("3", models.SeverityWarning, "search", "index", 1, 1),
		newAlert("4", models.SeverityInfo, "auth", "session", 1, 1),
		newAlert("5", models.SeverityCritical, "auth", "login", 1, 1),
	}

	groups := Group(batch)
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key().String())
	}
	want := []string{"search/index", "auth/login", "auth/session"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("group order = %v, want %v", keys, want)
	}
	if !reflect.DeepEqual(ids(groups[0].Alerts), []string{"1", "3"}) {
		t.Fatalf("unexpected members: %v", ids(groups[0].Alerts))
	}
	if !reflect.DeepEqual(ids(groups[1].Alerts), []string{"2", "5"}) {
		t.Fatalf("unexpected members: %v", ids(groups[1].Alerts))
	}
	if DistinctGroupCount(groups) != 3 {
		t.Fatalf("expected 3 distinct groups, got %d", DistinctGroupCount(groups))
	}
}

func TestGroupSameServiceDifferentComponent(t *testing.T) {
	groups := Group([]models.Alert{
		newAlert("1", models.SeverityInfo, "payments", "gateway", 1, 1),
		newAlert("2", models.SeverityInfo, "payments", "ledger", 1, 1),
	})
	if len(groups) != 2 {
		t.Fatalf("expected components to form separate groups, got %d", len(groups))
	}
}

func TestGroupPartitionsInput(t *testing.T) {
	batch := mixedBatch()
	groups := Group(batch)

	seen := make(map[string]int)
	total := 0
	for _, g := range groups {
		for _, a := range g.Alerts {
			if a.Service != g.Service || a.Component != g.Component {
				t.Fatalf("alert %s landed in group %s", a.ID, g.Key())
			}
			seen[a.ID]++
			total++
		}
	}
	if total != len(batch) {
		t.Fatalf("groups hold %d alerts, input has %d", total, len(batch))
	}
	for _, a := range batch {
		if seen[a.ID] != 1 {
			t.Fatalf("alert %s appears %d times", a.ID, seen[a.ID])
		}
	}
}
