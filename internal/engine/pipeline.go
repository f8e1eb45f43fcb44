package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/miradorstack/mirador-triage/internal/loader"
	"github.com/miradorstack/mirador-triage/internal/models"
)

// Pipeline runs the load, filter, group and score stages over one batch.
type Pipeline struct {
	logger  *slog.Logger
	runbook *Runbook
}

// NewPipeline constructs a pipeline; runbook may be nil.
func NewPipeline(logger *slog.Logger, runbook *Runbook) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, runbook: runbook}
}

// Run loads the payload and ranks its incidents. now is the reference instant for the
// recency filter; it is never read from a clock here.
func (p *Pipeline) Run(payload map[string]any, cfg models.FilterConfig, now time.Time) (models.Report, error) {
	alerts, err := loader.FromMap(payload)
	if err != nil {
		return models.Report{}, fmt.Errorf("load alerts: %w", err)
	}
	return p.RunAlerts(alerts, cfg, now)
}

// RunAlerts ranks an already loaded batch. Any stage failure aborts the run without a partial report.
func (p *Pipeline) RunAlerts(alerts []models.Alert, cfg models.FilterConfig, now time.Time) (models.Report, error) {
	filtered, err := Filter(alerts, cfg, now)
	if err != nil {
		return models.Report{}, fmt.Errorf("filter alerts: %w", err)
	}
	p.logger.Debug("alerts filtered", slog.Int("loaded", len(alerts)), slog.Int("kept", len(filtered)))

	groups := Group(filtered)
	distinct := DistinctGroupCount(groups)
	p.logger.Debug("alerts grouped", slog.Int("groups", len(groups)))

	ranked, err := Rank(groups, distinct)
	if err != nil {
		return models.Report{}, fmt.Errorf("rank incidents: %w", err)
	}

	if p.runbook != nil {
		byKey := make(map[models.GroupKey]models.IncidentGroup, len(groups))
		for _, g := range groups {
			byKey[g.Key()] = g
		}
		for i := range ranked {
			key := models.GroupKey{Service: ranked[i].Service, Component: ranked[i].Component}
			ranked[i].Recommendations = p.runbook.Recommend(byKey[key])
		}
	}

	summary := Summarize(alerts, filtered)
	summary.OverallPriority, err = OverallPriority(filtered)
	if err != nil {
		return models.Report{}, err
	}

	for _, inc := range ranked {
		if len(inc.ExcludedAlerts) > 0 {
			p.logger.Debug("alerts excluded from deviation",
				slog.String("group", inc.Service+"/"+inc.Component),
				slog.Any("alerts", inc.ExcludedAlerts))
		}
	}

	return models.Report{
		GeneratedAt: now,
		Filter:      cfg,
		Summary:     summary,
		Incidents:   ranked,
	}, nil
}
