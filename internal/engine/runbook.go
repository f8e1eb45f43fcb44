package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Runbook attaches operator-maintained hints to ranked incidents. It never affects scoring.
type Runbook struct {
	rules  []RunbookRule
	logger *slog.Logger
}

// RunbookRule maps an incident shape to recommendations.
type RunbookRule struct {
	ID              string       `yaml:"id"`
	Match           RunbookMatch `yaml:"match"`
	Recommendations []string     `yaml:"recommendations"`
}

// RunbookMatch lists optional attributes; empty fields match anything.
type RunbookMatch struct {
	Service   string `yaml:"service"`
	Component string `yaml:"component"`
	Severity  string `yaml:"severity"`
}

// RunbookFile is the YAML root structure.
type RunbookFile struct {
	Rules []RunbookRule `yaml:"rules"`
}

// NewRunbook loads rules from path. An empty path or a missing file yields a nil runbook.
func NewRunbook(path string, logger *slog.Logger) (*Runbook, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var file RunbookFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse runbook %s: %w", path, err)
	}
	for _, rule := range file.Rules {
		if rule.Match.Severity == "" {
			continue
		}
		if _, err := models.ParseSeverity(rule.Match.Severity); err != nil {
			return nil, fmt.Errorf("runbook rule %q: %w", rule.ID, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("runbook loaded", slog.String("path", path), slog.Int("rules", len(file.Rules)))
	return &Runbook{rules: file.Rules, logger: logger}, nil
}

// Recommend returns the de-duplicated recommendations of every rule matching the group.
func (r *Runbook) Recommend(group models.IncidentGroup) []string {
	if r == nil {
		return nil
	}

	var matched []string
	for _, rule := range r.rules {
		if rule.Match.Service != "" && !strings.EqualFold(rule.Match.Service, group.Service) {
			continue
		}
		if rule.Match.Component != "" && !strings.EqualFold(rule.Match.Component, group.Component) {
			continue
		}
		if rule.Match.Severity != "" && !groupHasSeverity(group, rule.Match.Severity) {
			continue
		}
		matched = appendUnique(matched, rule.Recommendations...)
	}
	return matched
}

func groupHasSeverity(group models.IncidentGroup, severity string) bool {
	sev, err := models.ParseSeverity(severity)
	if err != nil {
		return false
	}
	for _, a := range group.Alerts {
		if a.Severity == sev {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
