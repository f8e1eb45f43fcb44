package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-triage/internal/api"
	"github.com/miradorstack/mirador-triage/internal/config"
	"github.com/miradorstack/mirador-triage/internal/metrics"
	"github.com/miradorstack/mirador-triage/internal/services"
	"github.com/miradorstack/mirador-triage/internal/utils"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking API over gRPC and HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	logger := utils.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting mirador-triage",
		slog.String("grpc_address", cfg.Server.GRPCAddress),
		slog.String("http_address", cfg.Server.HTTPAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	httpHandler := api.NewHTTPHandler(svc, api.HTTPOptions{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	server, err := api.NewServer(cfg.Server, services.NewGRPCHandler(logger, svc), httpHandler)
	if err != nil {
		return err
	}

	go func() {
		logger.Info("listening",
			slog.String("grpc_address", server.GRPCAddress()),
			slog.String("http_address", server.HTTPAddress()))
		if err := server.Serve(); err != nil {
			logger.Error("server exited", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	logger.Info("mirador-triage stopped")
	return nil
}
