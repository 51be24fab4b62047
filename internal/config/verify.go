package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/stmkit/internal/telemetry/tracer"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifySTM(&cfg.STM),
		verifyAgent(&cfg.Agent),
		verifyTelemetry(&cfg.Telemetry),
		verifyLoad(&cfg.Load),
		verifyLog(&cfg.Log),
	)
}

func verifySTM(s *STMSection) error {
	var errs []error
	if s.MaxAttempts < 0 {
		errs = append(errs, errors.New("stm.max_attempts must not be negative"))
	}
	if s.BackoffBase < 0 || s.BackoffMax < 0 {
		errs = append(errs, errors.New("stm.backoff_base and stm.backoff_max must not be negative"))
	}
	if s.BackoffMax > 0 && s.BackoffMax < s.BackoffBase {
		errs = append(errs, fmt.Errorf("stm.backoff_max %v is below stm.backoff_base %v", s.BackoffMax, s.BackoffBase))
	}
	return errors.Join(errs...)
}

func verifyAgent(s *AgentSection) error {
	var errs []error
	if s.CPUWorkers < 0 {
		errs = append(errs, errors.New("agent.cpu_workers must not be negative"))
	}
	if s.IOLimit < 0 {
		errs = append(errs, errors.New("agent.io_limit must not be negative"))
	}
	if s.AwaitTimeout <= 0 {
		errs = append(errs, errors.New("agent.await_timeout must be positive"))
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("agent.shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func verifyTelemetry(s *TelemetrySection) error {
	var errs []error
	if s.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(s.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("telemetry.metrics_addr: %w", err))
		}
	}
	switch s.TraceExporter {
	case "", tracer.ExporterNone, tracer.ExporterStdout:
	case tracer.ExporterOTLP:
		if s.OTLPEndpoint == "" {
			errs = append(errs, errors.New("telemetry.otlp_endpoint is required for the otlp exporter"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.trace_exporter %q is not one of none, stdout, otlp", s.TraceExporter))
	}
	return errors.Join(errs...)
}

func verifyLoad(s *LoadSection) error {
	var errs []error
	if s.Accounts < 2 {
		errs = append(errs, errors.New("load.accounts must be at least 2"))
	}
	if s.InitialBalance < 0 {
		errs = append(errs, errors.New("load.initial_balance must not be negative"))
	}
	if s.Workers < 1 {
		errs = append(errs, errors.New("load.workers must be at least 1"))
	}
	if s.Rate <= 0 {
		errs = append(errs, errors.New("load.rate must be positive"))
	}
	if s.Burst < 1 {
		errs = append(errs, errors.New("load.burst must be at least 1"))
	}
	if s.MaxAmount < 1 {
		errs = append(errs, errors.New("load.max_amount must be at least 1"))
	}
	return errors.Join(errs...)
}

func verifyLog(s *LogSection) error {
	var errs []error
	switch s.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s.Level))
	}
	switch s.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", s.Format))
	}
	return errors.Join(errs...)
}
