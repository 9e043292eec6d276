package app

import (
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/PeladoCollado/requester/types"
)

// ConfigError is returned for a missing or invalid setting. It is always
// reported before any request is sent.
type ConfigError struct {
	Field  string
	Reason string
}

func (c *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", c.Field, c.Reason)
}

type Config struct {
	InputFile string
	TargetURL string
	Threads   int
	Requests  int64
	Mode      string

	RequestTimeout time.Duration
	JoinTimeout    time.Duration
	ReportInterval time.Duration
	Insecure       bool

	MetricsPort int
	ReportURL   string
}

func DefaultConfig() Config {
	return Config{
		Threads:  4,
		Requests: -1,
		Mode:     string(types.ModeFixed),

		RequestTimeout: 30 * time.Second,
		JoinTimeout:    5 * time.Second,
		ReportInterval: time.Second,
	}
}

func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.InputFile, "input", cfg.InputFile, "Path to the request definition file")
	fs.StringVar(&cfg.TargetURL, "url", cfg.TargetURL, "Target URL; overrides the URL in the input file")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "Number of workers")
	fs.Int64Var(&cfg.Requests, "requests", cfg.Requests, "Total requests to send across all workers (fixed mode)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Run mode: fixed or continuous")

	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Per-request timeout")
	fs.DurationVar(&cfg.JoinTimeout, "join-timeout", cfg.JoinTimeout, "How long to wait for workers to exit after a stop")
	fs.DurationVar(&cfg.ReportInterval, "report-interval", cfg.ReportInterval, "How often to print throughput")
	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip TLS certificate verification")

	fs.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "Serve Prometheus metrics on this port when > 0")
	fs.StringVar(&cfg.ReportURL, "report-url", cfg.ReportURL, "POST the final run report as JSON to this URL")
}

func ParseConfig(args []string) (Config, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("requester", flag.ContinueOnError)
	BindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, &ConfigError{Field: "args", Reason: fmt.Sprintf("unexpected arguments %v", fs.Args())}
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if cfg.InputFile == "" {
		return &ConfigError{Field: "input", Reason: "is required"}
	}
	if cfg.Threads < 1 {
		return &ConfigError{Field: "threads", Reason: "must be >= 1"}
	}
	switch types.Mode(cfg.Mode) {
	case types.ModeFixed:
		if cfg.Requests < 0 {
			return &ConfigError{Field: "requests", Reason: "is required in fixed mode and must be >= 0"}
		}
	case types.ModeContinuous:
	default:
		return &ConfigError{Field: "mode", Reason: fmt.Sprintf("unsupported mode %q", cfg.Mode)}
	}
	if cfg.TargetURL != "" {
		if err := validateTargetURL(cfg.TargetURL); err != nil {
			return &ConfigError{Field: "url", Reason: err.Error()}
		}
	}
	if cfg.RequestTimeout < 0 {
		return &ConfigError{Field: "timeout", Reason: "must be >= 0"}
	}
	if cfg.JoinTimeout <= 0 {
		return &ConfigError{Field: "join-timeout", Reason: "must be > 0"}
	}
	if cfg.ReportInterval <= 0 {
		return &ConfigError{Field: "report-interval", Reason: "must be > 0"}
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return &ConfigError{Field: "metrics-port", Reason: "must be between 0 and 65535"}
	}
	if cfg.ReportURL != "" {
		if err := validateTargetURL(cfg.ReportURL); err != nil {
			return &ConfigError{Field: "report-url", Reason: err.Error()}
		}
	}
	return nil
}

func validateTargetURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("URL must be absolute: %s", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	return nil
}
