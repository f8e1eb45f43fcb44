package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/miradorstack/mirador-triage/internal/api"
	"github.com/miradorstack/mirador-triage/internal/config"
	"github.com/miradorstack/mirador-triage/internal/engine"
	"github.com/miradorstack/mirador-triage/internal/models"
	"github.com/miradorstack/mirador-triage/internal/services"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MIRADOR_TRIAGE_CONFIG", "")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRankJSON(t *testing.T) {
	out, err := runCLI(t, "rank", "--file", "testdata/alerts.json", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report models.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if report.RunID == "" {
		t.Fatalf("expected run id")
	}
	if len(report.Incidents) != 2 || report.Incidents[0].Service != "payments" {
		t.Fatalf("unexpected incidents: %+v", report.Incidents)
	}
}

func TestRankFilters(t *testing.T) {
	out, err := runCLI(t, "rank", "-f", "testdata/alerts.json", "-o", "json",
		"--severity", "critical", "--severity", "warning",
		"--within", "30", "--now", "2024-04-28T09:45:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report models.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if report.Summary.FilteredAlerts != 2 || len(report.Incidents) != 1 {
		t.Fatalf("unexpected report: %+v", report.Summary)
	}
	if got := report.Incidents[0].AlertIDs; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected alert ids: %v", got)
	}
}

func TestRankTable(t *testing.T) {
	out, err := runCLI(t, "rank", "--file", "testdata/alerts.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "RANK") || !strings.Contains(out, "payments") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestRankErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown severity": {"rank", "--file", "testdata/alerts.json", "--severity", "fatal"},
		"negative window":  {"rank", "--file", "testdata/alerts.json", "--within", "-5"},
		"bad now":          {"rank", "--file", "testdata/alerts.json", "--now", "noon"},
		"bad format":       {"rank", "--file", "testdata/alerts.json", "--format", "xml"},
		"missing file":     {"rank", "--file", "testdata/missing.json"},
		"no file flag":     {"rank"},
	}
	for name, args := range cases {
		if _, err := runCLI(t, args...); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRankValidatesFilterBeforeReadingFile(t *testing.T) {
	_, err := runCLI(t, "rank", "--file", "testdata/missing.json", "--severity", "fatal")
	var invalid *models.InvalidFilterConfigurationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected filter error before file access, got %v", err)
	}
}

func TestRankRemote(t *testing.T) {
	svc := services.NewTriageService(nil, engine.NewPipeline(nil, nil))
	server, err := api.NewServer(config.ServerConfig{GRPCAddress: "127.0.0.1:0", GracefulTimeout: time.Second},
		services.NewGRPCHandler(nil, svc), nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = server.Serve() }()
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	out, err := runCLI(t, "rank", "--file", "testdata/alerts.json", "--format", "json",
		"--remote", server.GRPCAddress(), "--severity", "critical")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report models.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if report.RunID == "" || len(report.Incidents) != 1 || report.Incidents[0].AlertIDs[0] != "A" {
		t.Fatalf("unexpected report: %+v", report)
	}
}
