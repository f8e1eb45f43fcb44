package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIRADOR_TRIAGE_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.GRPCAddress != ":50051" || cfg.Server.HTTPAddress != ":8080" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Output.Format != "table" || cfg.Cache.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.FilterDefaults().IsZero() {
		t.Fatalf("expected no default filter, got %+v", cfg.FilterDefaults())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`server:
  grpcAddress: "127.0.0.1:6000"
  gracefulTimeout: 3s
logging:
  level: debug
  json: true
filter:
  severities: [critical, warning]
  withinMinutes: 45
output:
  format: json
cache:
  enabled: true
  addr: "localhost:6379"
  reportTTL: 30s
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.GRPCAddress != "127.0.0.1:6000" || cfg.Server.GracefulTimeout != 3*time.Second {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.HTTPAddress != ":8080" {
		t.Fatalf("defaults should survive partial files, got %q", cfg.Server.HTTPAddress)
	}
	if !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Cache.ReportTTL != 30*time.Second || !cfg.Cache.Enabled {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}

	f := cfg.FilterDefaults()
	if len(f.Severities) != 2 || f.WithinMinutes == nil || *f.WithinMinutes != 45 {
		t.Fatalf("unexpected filter defaults: %+v", f)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MIRADOR_TRIAGE_CONFIG", "")
	t.Setenv("MIRADOR_TRIAGE_GRPC_ADDRESS", ":7000")
	t.Setenv("MIRADOR_TRIAGE_LOG_FORMAT", "json")
	t.Setenv("MIRADOR_TRIAGE_FILTER_SEVERITIES", "critical, info")
	t.Setenv("MIRADOR_TRIAGE_FILTER_SERVICE", "payments")
	t.Setenv("MIRADOR_TRIAGE_CACHE_ENABLED", "1")
	t.Setenv("MIRADOR_TRIAGE_CACHE_ADDR", "redis:6379")
	t.Setenv("MIRADOR_TRIAGE_CACHE_REPORT_TTL", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.GRPCAddress != ":7000" || !cfg.Logging.JSON {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Filter.Severities) != 2 || cfg.Filter.Severities[1] != "info" || cfg.Filter.Service != "payments" {
		t.Fatalf("unexpected filter: %+v", cfg.Filter)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "redis:6379" || cfg.Cache.ReportTTL != time.Minute {
		t.Fatalf("unexpected cache: %+v", cfg.Cache)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Filter.Severities = []string{"urgent"}
	cfg.Output.Format = "xml"
	cfg.Cache.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"filter.severities", "output.format", "cache.addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
