package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/miradorstack/mirador-triage/internal/cache"
	"github.com/miradorstack/mirador-triage/internal/engine"
	"github.com/miradorstack/mirador-triage/internal/metrics"
	"github.com/miradorstack/mirador-triage/internal/models"
)

var tracer = otel.Tracer("github.com/miradorstack/mirador-triage/internal/services")

const reportCacheNamespace = "mirador-triage:report"

// TriageService is the host boundary around the pipeline: it supplies the clock,
// memoises reports, assigns run ids and records metrics.
type TriageService struct {
	logger   *slog.Logger
	pipeline *engine.Pipeline
	cache    cache.Provider
	cacheTTL time.Duration
	now      func() time.Time
}

// Option customises a TriageService.
type Option func(*TriageService)

// WithClock overrides the clock used when a request carries no reference instant.
func WithClock(now func() time.Time) Option {
	return func(s *TriageService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCache memoises reports in provider for ttl.
func WithCache(provider cache.Provider, ttl time.Duration) Option {
	return func(s *TriageService) {
		if provider != nil {
			s.cache = provider
			s.cacheTTL = ttl
		}
	}
}

// NewTriageService constructs the service facade.
func NewTriageService(logger *slog.Logger, pipeline *engine.Pipeline, opts ...Option) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TriageService{
		logger:   logger,
		pipeline: pipeline,
		cache:    cache.NoopProvider{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rank runs the pipeline for one request. A zero req.Now is replaced by the service clock.
func (s *TriageService) Rank(ctx context.Context, req models.RankRequest) (models.Report, error) {
	if s.pipeline == nil {
		return models.Report{}, errors.New("pipeline not configured")
	}

	ctx, span := tracer.Start(ctx, "triage.Rank")
	defer span.End()

	if req.Now.IsZero() {
		req.Now = s.now().UTC()
	}
	span.SetAttributes(
		attribute.String("triage.now", req.Now.Format(time.RFC3339)),
		attribute.StringSlice("triage.filter.severities", req.Filter.Severities),
		attribute.String("triage.filter.service", req.Filter.Service),
	)

	if err := ctx.Err(); err != nil {
		return models.Report{}, err
	}

	start := time.Now()
	key, keyErr := reportKey(req)
	if keyErr == nil {
		if report, ok := s.lookup(ctx, key); ok {
			span.SetAttributes(attribute.Bool("triage.cache_hit", true))
			return s.finish(span, report, time.Since(start), true), nil
		}
	}

	report, err := s.pipeline.Run(req.Payload, req.Filter, req.Now)
	duration := time.Since(start)
	if err != nil {
		recordError(span, err)
		if models.IsInvalidInput(err) {
			metrics.ObserveRun(duration, metrics.OutcomeRejected)
			s.logger.Debug("rank request rejected", slog.Any("error", err))
			return models.Report{}, err
		}
		metrics.ObserveRun(duration, metrics.OutcomeError)
		s.logger.Error("ranking failed", slog.Any("error", err))
		return models.Report{}, fmt.Errorf("rank alerts: %w", err)
	}

	if keyErr == nil {
		s.store(ctx, key, report)
	}
	return s.finish(span, report, duration, false), nil
}

// finish records metrics and span attributes for a successful run, fresh or cached, and
// stamps the run id.
func (s *TriageService) finish(span trace.Span, report models.Report, duration time.Duration, cached bool) models.Report {
	metrics.ObserveRun(duration, metrics.OutcomeSuccess)
	metrics.ObserveAlerts(report.Summary.TotalAlerts, report.Summary.FilteredAlerts)
	excluded := 0
	for _, inc := range report.Incidents {
		excluded += len(inc.ExcludedAlerts)
	}
	metrics.ObserveExclusions(excluded)

	report.RunID = ulid.Make().String()
	span.SetAttributes(
		attribute.Int("triage.alerts.loaded", report.Summary.TotalAlerts),
		attribute.Int("triage.alerts.filtered", report.Summary.FilteredAlerts),
		attribute.Int("triage.alerts.excluded", excluded),
		attribute.Int("triage.incidents", len(report.Incidents)),
	)
	s.logger.Info("batch ranked",
		slog.String("run_id", report.RunID),
		slog.Bool("cached", cached),
		slog.Int("alerts", report.Summary.TotalAlerts),
		slog.Int("incidents", len(report.Incidents)),
		slog.Duration("duration", duration))
	return report
}

func (s *TriageService) lookup(ctx context.Context, key string) (models.Report, bool) {
	if _, noop := s.cache.(cache.NoopProvider); noop {
		return models.Report{}, false
	}
	data, err := s.cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.ObserveCacheLookup(metrics.CacheMiss)
		return models.Report{}, false
	case err != nil:
		metrics.ObserveCacheLookup(metrics.CacheError)
		s.logger.Warn("report cache lookup failed", slog.Any("error", err))
		return models.Report{}, false
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		metrics.ObserveCacheLookup(metrics.CacheError)
		s.logger.Warn("cached report is unreadable", slog.String("key", key), slog.Any("error", err))
		return models.Report{}, false
	}
	metrics.ObserveCacheLookup(metrics.CacheHit)
	return report, true
}

func (s *TriageService) store(ctx context.Context, key string, report models.Report) {
	if _, noop := s.cache.(cache.NoopProvider); noop {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("encode report for cache", slog.Any("error", err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("report cache store failed", slog.Any("error", err))
	}
}

// reportKey hashes the canonical JSON of the request; encoding/json sorts map keys.
func reportKey(req models.RankRequest) (string, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", err
	}
	filter, err := json.Marshal(req.Filter)
	if err != nil {
		return "", err
	}
	return cache.Key(reportCacheNamespace, payload, filter, []byte(req.Now.UTC().Format(time.RFC3339Nano))), nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
