// Package loader turns raw alert payloads into validated alert batches.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Format selects the payload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const alertsKey = "alerts"

var knownFields = map[string]struct{}{
	"id":          {},
	"timestamp":   {},
	"service":     {},
	"component":   {},
	"severity":    {},
	"metric":      {},
	"value":       {},
	"threshold":   {},
	"description": {},
}

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads and validates the batch stored at path.
func LoadFile(path string) ([]models.Alert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// Decode parses data as a payload document and validates its alerts.
func Decode(data []byte, format Format) ([]models.Alert, error) {
	payload, err := DecodePayload(data, format)
	if err != nil {
		return nil, err
	}
	return FromMap(payload)
}

// DecodePayload parses data into the generic payload mapping without validating alerts.
func DecodePayload(data []byte, format Format) (map[string]any, error) {
	var payload map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", models.ErrInvalidPayload, err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", models.ErrInvalidPayload, err)
		}
	default:
		return nil, fmt.Errorf("unsupported payload format %q", format)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: document is empty", models.ErrInvalidPayload)
	}
	return payload, nil
}

// FromMap validates the records under the payload's alerts key, preserving input order.
// The first invalid record aborts the whole batch.
func FromMap(payload map[string]any) ([]models.Alert, error) {
	raw, ok := payload[alertsKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", models.ErrInvalidPayload, alertsKey)
	}
	records, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a list, got %T", models.ErrInvalidPayload, alertsKey, raw)
	}

	alerts := make([]models.Alert, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		alert, err := parseRecord(i, rec)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[alert.ID]; dup {
			return nil, &models.MalformedAlertError{
				Index:  i,
				ID:     alert.ID,
				Field:  "id",
				Reason: fmt.Sprintf("duplicate of alert %d", first),
			}
		}
		seen[alert.ID] = i
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

type recordParser struct {
	index  int
	id     string
	fields map[string]any
}

func (p *recordParser) fail(field, reason string) error {
	return &models.MalformedAlertError{Index: p.index, ID: p.id, Field: field, Reason: reason}
}

func parseRecord(index int, rec any) (models.Alert, error) {
	fields, ok := asMap(rec)
	if !ok {
		return models.Alert{}, &models.MalformedAlertError{
			Index:  index,
			Field:  "",
			Reason: fmt.Sprintf("record must be a mapping, got %T", rec),
		}
	}

	p := &recordParser{index: index, fields: fields}
	if id, ok := fields["id"].(string); ok {
		p.id = id
	}

	var (
		a   models.Alert
		err error
	)
	if a.ID, err = p.requiredString("id", true); err != nil {
		return models.Alert{}, err
	}
	if a.Timestamp, err = p.timestamp("timestamp"); err != nil {
		return models.Alert{}, err
	}
	if a.Service, err = p.requiredString("service", true); err != nil {
		return models.Alert{}, err
	}
	if a.Component, err = p.requiredString("component", true); err != nil {
		return models.Alert{}, err
	}
	if a.Severity, err = p.severity("severity"); err != nil {
		return models.Alert{}, err
	}
	if a.Metric, err = p.requiredString("metric", false); err != nil {
		return models.Alert{}, err
	}
	if a.Value, err = p.number("value"); err != nil {
		return models.Alert{}, err
	}
	if a.Threshold, err = p.number("threshold"); err != nil {
		return models.Alert{}, err
	}
	if a.Description, err = p.requiredString("description", false); err != nil {
		return models.Alert{}, err
	}
	if err := p.rejectUnknown(); err != nil {
		return models.Alert{}, err
	}
	return a, nil
}

func (p *recordParser) lookup(field string) (any, error) {
	v, ok := p.fields[field]
	if !ok {
		return nil, p.fail(field, "missing")
	}
	if v == nil {
		return nil, p.fail(field, "null")
	}
	return v, nil
}

func (p *recordParser) requiredString(field string, nonEmpty bool) (string, error) {
	v, err := p.lookup(field)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", p.fail(field, fmt.Sprintf("expected string, got %T", v))
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		return "", p.fail(field, "empty")
	}
	return s, nil
}

func (p *recordParser) timestamp(field string) (time.Time, error) {
	v, err := p.lookup(field)
	if err != nil {
		return time.Time{}, err
	}
	switch ts := v.(type) {
	case time.Time:
		return ts, nil
	case string:
		t, err := ParseTimestamp(ts)
		if err != nil {
			return time.Time{}, p.fail(field, err.Error())
		}
		return t, nil
	default:
		return time.Time{}, p.fail(field, fmt.Sprintf("expected ISO-8601 string, got %T", v))
	}
}

func (p *recordParser) severity(field string) (models.Severity, error) {
	s, err := p.requiredString(field, false)
	if err != nil {
		return "", err
	}
	sev, err := models.ParseSeverity(s)
	if err != nil {
		return "", p.fail(field, fmt.Sprintf("unrecognised severity %q", s))
	}
	return sev, nil
}

func (p *recordParser) number(field string) (float64, error) {
	v, err := p.lookup(field)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, p.fail(field, fmt.Sprintf("expected number, got %T", v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, p.fail(field, "not a finite number")
	}
	return f, nil
}

func (p *recordParser) rejectUnknown() error {
	var unknown []string
	for k := range p.fields {
		if _, ok := knownFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return p.fail(unknown[0], "unexpected field")
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
