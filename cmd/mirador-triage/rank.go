package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/miradorstack/mirador-triage/internal/api"
	"github.com/miradorstack/mirador-triage/internal/config"
	"github.com/miradorstack/mirador-triage/internal/engine"
	"github.com/miradorstack/mirador-triage/internal/loader"
	"github.com/miradorstack/mirador-triage/internal/models"
	"github.com/miradorstack/mirador-triage/internal/render"
	"github.com/miradorstack/mirador-triage/internal/utils"
)

type rankOptions struct {
	File       string
	Severities []string
	Service    string
	Within     int
	Now        string
	Format     string
	Remote     string
}

func newRankCmd(configPath *string) *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the alerts in a JSON or YAML batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runRank(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "alert batch file (.json, .yaml, .yml)")
	cmd.Flags().StringArrayVar(&opts.Severities, "severity", nil, "keep only this severity (repeatable)")
	cmd.Flags().StringVar(&opts.Service, "service", "", "keep only alerts from this service")
	cmd.Flags().IntVar(&opts.Within, "within", 0, "keep only alerts from the last N minutes (0 = no limit)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "reference instant for --within (RFC 3339, default: current time)")
	cmd.Flags().StringVarP(&opts.Format, "format", "o", "", "output format: table or json")
	cmd.Flags().StringVar(&opts.Remote, "remote", "", "rank on a running server at this gRPC address instead of locally")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runRank(cmd *cobra.Command, cfg *config.Config, opts rankOptions) error {
	logger := utils.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.JSON)

	req, format, err := buildRankRequest(cmd, cfg, opts)
	if err != nil {
		return err
	}
	if err := engine.ValidateFilter(req.Filter, req.Now); err != nil {
		return err
	}

	data, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("read alerts: %w", err)
	}
	payload, err := loader.DecodePayload(data, loader.FormatFromPath(opts.File))
	if err != nil {
		return err
	}
	req.Payload = payload

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var report models.Report
	if opts.Remote != "" {
		report, err = rankRemote(ctx, opts.Remote, cfg.Server.RequestTimeout, req)
	} else {
		svc, cleanup, buildErr := buildService(ctx, cfg, logger)
		if buildErr != nil {
			return buildErr
		}
		defer cleanup()
		report, err = svc.Rank(ctx, req)
	}
	if err != nil {
		return err
	}
	return render.New(format).Render(cmd.OutOrStdout(), report)
}

func rankRemote(ctx context.Context, addr string, timeout time.Duration, req models.RankRequest) (models.Report, error) {
	doc, err := api.RankRequestToStruct(req)
	if err != nil {
		return models.Report{}, err
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return models.Report{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := api.NewTriageClient(conn).Rank(ctx, doc)
	if err != nil {
		return models.Report{}, fmt.Errorf("remote rank: %w", err)
	}
	return api.ReportFromStruct(resp)
}

// buildRankRequest layers explicitly set flags over the configured filter defaults. The
// reference instant defaults to the current time.
func buildRankRequest(cmd *cobra.Command, cfg *config.Config, opts rankOptions) (models.RankRequest, render.Format, error) {
	req := models.RankRequest{Filter: cfg.FilterDefaults(), Now: time.Now().UTC()}

	flags := cmd.Flags()
	if flags.Changed("severity") {
		req.Filter.Severities = append([]string(nil), opts.Severities...)
	}
	if flags.Changed("service") {
		req.Filter.Service = opts.Service
	}
	if flags.Changed("within") {
		// Negative values are passed through so the filter reports them.
		within := opts.Within
		req.Filter.WithinMinutes = &within
	}
	if opts.Now != "" {
		now, err := loader.ParseTimestamp(opts.Now)
		if err != nil {
			return models.RankRequest{}, "", fmt.Errorf("invalid --now value: %w", err)
		}
		req.Now = now
	}

	formatName := cfg.Output.Format
	if opts.Format != "" {
		formatName = opts.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return models.RankRequest{}, "", err
	}
	return req, format, nil
}
