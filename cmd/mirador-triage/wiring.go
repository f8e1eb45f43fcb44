package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miradorstack/mirador-triage/internal/cache"
	"github.com/miradorstack/mirador-triage/internal/config"
	"github.com/miradorstack/mirador-triage/internal/engine"
	"github.com/miradorstack/mirador-triage/internal/services"
)

// buildService wires the pipeline, runbook and optional report cache. The returned
// cleanup releases the cache connection.
func buildService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.TriageService, func(), error) {
	runbook, err := engine.NewRunbook(cfg.Runbook.Path, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load runbook: %w", err)
	}
	pipeline := engine.NewPipeline(logger, runbook)

	cleanup := func() {}
	var opts []services.Option
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(ctx, cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("report cache unavailable", slog.Any("error", err))
		} else {
			opts = append(opts, services.WithCache(provider, cfg.Cache.ReportTTL))
			cleanup = func() {
				if err := provider.Close(); err != nil {
					logger.Warn("close report cache", slog.Any("error", err))
				}
			}
		}
	}

	return services.NewTriageService(logger, pipeline, opts...), cleanup, nil
}
