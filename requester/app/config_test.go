package app

import (
	"errors"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.InputFile = "request.http"
	cfg.Requests = 10
	return cfg
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]string{
		"-input=request.http",
		"--threads=8",
		"-requests=1000",
		"-url=http://localhost:8080/sum",
		"-mode=continuous",
		"-timeout=2s",
		"-join-timeout=3s",
		"-report-interval=500ms",
		"-metrics-port=9100",
		"-report-url=http://collector:8099/report",
		"-insecure",
	})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if cfg.InputFile != "request.http" {
		t.Fatalf("expected input request.http, got %s", cfg.InputFile)
	}
	if cfg.Threads != 8 || cfg.Requests != 1000 {
		t.Fatalf("unexpected threads=%d requests=%d", cfg.Threads, cfg.Requests)
	}
	if cfg.TargetURL != "http://localhost:8080/sum" {
		t.Fatalf("unexpected url %s", cfg.TargetURL)
	}
	if cfg.Mode != "continuous" {
		t.Fatalf("expected continuous mode, got %s", cfg.Mode)
	}
	if cfg.RequestTimeout != 2*time.Second || cfg.JoinTimeout != 3*time.Second {
		t.Fatalf("unexpected timeouts request=%s join=%s", cfg.RequestTimeout, cfg.JoinTimeout)
	}
	if cfg.ReportInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms report interval, got %s", cfg.ReportInterval)
	}
	if cfg.MetricsPort != 9100 || cfg.ReportURL != "http://collector:8099/report" || !cfg.Insecure {
		t.Fatalf("unexpected metrics/report settings %+v", cfg)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]string{"-input=x.http"})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if cfg.Threads != 4 || cfg.Mode != "fixed" || cfg.ReportInterval != time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Requests != -1 {
		t.Fatalf("expected requests to default to unset, got %d", cfg.Requests)
	}
}

func TestParseConfigRejectsPositionalArgs(t *testing.T) {
	_, err := ParseConfig([]string{"-input=x.http", "extra"})
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidateConfigAcceptsFixedAndContinuous(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("expected valid fixed config, got %v", err)
	}
	cfg := validConfig()
	cfg.Mode = "continuous"
	cfg.Requests = -1
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected continuous mode without requests to validate, got %v", err)
	}
	cfg = validConfig()
	cfg.Requests = 0
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected zero requests to validate, got %v", err)
	}
}

func TestValidateConfigRejectsInvalidSettings(t *testing.T) {
	cases := map[string]func(cfg *Config){
		"input":           func(cfg *Config) { cfg.InputFile = "" },
		"threads":         func(cfg *Config) { cfg.Threads = 0 },
		"requests":        func(cfg *Config) { cfg.Requests = -1 },
		"mode":            func(cfg *Config) { cfg.Mode = "burst" },
		"url":             func(cfg *Config) { cfg.TargetURL = "localhost:8080" },
		"join-timeout":    func(cfg *Config) { cfg.JoinTimeout = 0 },
		"report-interval": func(cfg *Config) { cfg.ReportInterval = 0 },
		"metrics-port":    func(cfg *Config) { cfg.MetricsPort = 70000 },
		"report-url":      func(cfg *Config) { cfg.ReportURL = "ftp://collector/report" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			err := ValidateConfig(cfg)
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if configErr.Field != field {
				t.Fatalf("expected error on %s, got %s", field, configErr.Field)
			}
		})
	}
}
