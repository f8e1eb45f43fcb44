package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-triage/internal/models"
)

// Config captures the settings of the triage CLI and server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Filter  FilterConfig  `yaml:"filter"`
	Output  OutputConfig  `yaml:"output"`
	Runbook RunbookConfig `yaml:"runbook"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	GRPCAddress     string        `yaml:"grpcAddress"`
	HTTPAddress     string        `yaml:"httpAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// FilterConfig holds default filter options applied by the CLI when no flag overrides them.
type FilterConfig struct {
	Severities    []string `yaml:"severities"`
	Service       string   `yaml:"service"`
	WithinMinutes int      `yaml:"withinMinutes"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// RunbookConfig points at the optional runbook rule pack.
type RunbookConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls Redis-backed memoisation of ranked reports.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	ReportTTL    time.Duration `yaml:"reportTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MIRADOR_TRIAGE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			GRPCAddress:     ":50051",
			HTTPAddress:     ":8080",
			GracefulTimeout: 10 * time.Second,
			RequestTimeout:  5 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Output:  OutputConfig{Format: "table"},
		Runbook: RunbookConfig{Path: "configs/runbooks/default.yaml"},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			ReportTTL:    5 * time.Minute,
		},
	}
}

// Validate checks the configuration and joins every problem found.
func (c *Config) Validate() error {
	var errs []error

	for _, s := range c.Filter.Severities {
		if _, err := models.ParseSeverity(s); err != nil {
			errs = append(errs, fmt.Errorf("filter.severities: %w", err))
		}
	}
	if c.Filter.WithinMinutes < 0 {
		errs = append(errs, fmt.Errorf("filter.withinMinutes must not be negative, got %d", c.Filter.WithinMinutes))
	}
	switch strings.ToLower(c.Output.Format) {
	case "table", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be table or json, got %q", c.Output.Format))
	}
	if c.Server.GracefulTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.gracefulTimeout must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.maxBodyBytes must be positive"))
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, errors.New("cache.addr is required when the cache is enabled"))
	}

	return errors.Join(errs...)
}

// FilterDefaults converts the configured defaults into a domain filter.
func (c *Config) FilterDefaults() models.FilterConfig {
	f := models.FilterConfig{
		Severities: append([]string(nil), c.Filter.Severities...),
		Service:    c.Filter.Service,
	}
	if c.Filter.WithinMinutes > 0 {
		minutes := c.Filter.WithinMinutes
		f.WithinMinutes = &minutes
	}
	return f
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIRADOR_TRIAGE_GRPC_ADDRESS"); v != "" {
		cfg.Server.GRPCAddress = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("MIRADOR_TRIAGE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("MIRADOR_TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("MIRADOR_TRIAGE_FILTER_SEVERITIES"); v != "" {
		cfg.Filter.Severities = splitList(v)
	}
	if v := os.Getenv("MIRADOR_TRIAGE_FILTER_SERVICE"); v != "" {
		cfg.Filter.Service = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_FILTER_WITHIN_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.Filter.WithinMinutes = m
		}
	}
	if v := os.Getenv("MIRADOR_TRIAGE_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_RUNBOOK_PATH"); v != "" {
		cfg.Runbook.Path = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("MIRADOR_TRIAGE_CACHE_REPORT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReportTTL = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
