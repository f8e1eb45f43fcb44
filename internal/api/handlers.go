package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-triage/internal/loader"
	"github.com/miradorstack/mirador-triage/internal/models"
)

// ErrBadRequest marks a rank request whose envelope cannot be understood.
var ErrBadRequest = errors.New("bad request")

var requestKeys = map[string]struct{}{
	"alerts": {},
	"filter": {},
	"now":    {},
}

// ParseRankRequest maps a decoded request document into a domain RankRequest. The alerts
// list is handed to the loader untouched; envelope problems wrap ErrBadRequest.
func ParseRankRequest(doc map[string]any) (models.RankRequest, error) {
	if doc == nil {
		return models.RankRequest{}, fmt.Errorf("%w: request is nil", ErrBadRequest)
	}

	var unknown []string
	for k := range doc {
		if _, ok := requestKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return models.RankRequest{}, fmt.Errorf("%w: unexpected fields %s", ErrBadRequest, strings.Join(unknown, ", "))
	}

	req := models.RankRequest{Payload: map[string]any{}}
	if alerts, ok := doc["alerts"]; ok {
		req.Payload["alerts"] = alerts
	}

	if raw, ok := doc["filter"]; ok && raw != nil {
		filter, err := parseFilter(raw)
		if err != nil {
			return models.RankRequest{}, err
		}
		req.Filter = filter
	}

	if raw, ok := doc["now"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return models.RankRequest{}, fmt.Errorf("%w: now must be a timestamp string, got %T", ErrBadRequest, raw)
		}
		now, err := loader.ParseTimestamp(s)
		if err != nil {
			return models.RankRequest{}, fmt.Errorf("%w: now: %v", ErrBadRequest, err)
		}
		req.Now = now
	}
	return req, nil
}

func parseFilter(raw any) (models.FilterConfig, error) {
	if _, ok := raw.(map[string]any); !ok {
		return models.FilterConfig{}, fmt.Errorf("%w: filter must be an object, got %T", ErrBadRequest, raw)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return models.FilterConfig{}, fmt.Errorf("%w: filter: %v", ErrBadRequest, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var filter models.FilterConfig
	if err := dec.Decode(&filter); err != nil {
		return models.FilterConfig{}, fmt.Errorf("%w: filter: %v", ErrBadRequest, err)
	}
	return filter, nil
}

// RankRequestToStruct builds the gRPC request document for req. The document goes through a
// JSON round trip so decoder-specific values (json.Number, time.Time) become plain JSON types.
func RankRequestToStruct(req models.RankRequest) (*structpb.Struct, error) {
	doc := map[string]any{}
	if alerts, ok := req.Payload["alerts"]; ok {
		doc["alerts"] = alerts
	}
	if !req.Filter.IsZero() {
		doc["filter"] = req.Filter
	}
	if !req.Now.IsZero() {
		doc["now"] = req.Now.UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode rank request: %w", err)
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, fmt.Errorf("decode rank request: %w", err)
	}
	return structpb.NewStruct(plain)
}

// ReportToMap renders a report as the generic JSON document served by the API.
func ReportToMap(report models.Report) (map[string]any, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return doc, nil
}

// ReportToStruct converts a report into its gRPC representation.
func ReportToStruct(report models.Report) (*structpb.Struct, error) {
	doc, err := ReportToMap(report)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(doc)
}

// ReportFromStruct decodes a gRPC report document back into the domain type.
func ReportFromStruct(s *structpb.Struct) (models.Report, error) {
	if s == nil {
		return models.Report{}, fmt.Errorf("report is nil")
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return models.Report{}, fmt.Errorf("encode report: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return models.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}
