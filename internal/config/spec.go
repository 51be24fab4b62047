package config

import "time"

// Config is the root configuration of the stmkit command.
type Config struct {
	STM       STMSection       `koanf:"stm" json:"stm" yaml:"stm"`
	Agent     AgentSection     `koanf:"agent" json:"agent" yaml:"agent"`
	Telemetry TelemetrySection `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`
	Load      LoadSection      `koanf:"load" json:"load" yaml:"load"`
	Log       LogSection       `koanf:"log" json:"log" yaml:"log"`
}

// STMSection configures the transaction runtime.
type STMSection struct {
	// MaxAttempts bounds retries. Zero retries until commit.
	MaxAttempts int           `koanf:"max_attempts" json:"max_attempts" yaml:"max_attempts"`
	BackoffBase time.Duration `koanf:"backoff_base" json:"backoff_base" yaml:"backoff_base"`
	BackoffMax  time.Duration `koanf:"backoff_max" json:"backoff_max" yaml:"backoff_max"`
}

// AgentSection configures the dispatcher.
type AgentSection struct {
	// CPUWorkers is the CPU pool size. Zero uses GOMAXPROCS+2.
	CPUWorkers int `koanf:"cpu_workers" json:"cpu_workers" yaml:"cpu_workers"`
	// IOLimit caps concurrent I/O actions. Zero is unbounded.
	IOLimit         int           `koanf:"io_limit" json:"io_limit" yaml:"io_limit"`
	AwaitTimeout    time.Duration `koanf:"await_timeout" json:"await_timeout" yaml:"await_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// TelemetrySection configures metrics and tracing.
type TelemetrySection struct {
	// MetricsAddr is the /metrics listen address. Empty disables it.
	MetricsAddr   string `koanf:"metrics_addr" json:"metrics_addr" yaml:"metrics_addr"`
	TraceExporter string `koanf:"trace_exporter" json:"trace_exporter" yaml:"trace_exporter"`
	OTLPEndpoint  string `koanf:"otlp_endpoint" json:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure  bool   `koanf:"otlp_insecure" json:"otlp_insecure" yaml:"otlp_insecure"`
	ServiceName   string `koanf:"service_name" json:"service_name" yaml:"service_name"`
}

// LoadSection configures the load generating commands.
type LoadSection struct {
	Accounts       int     `koanf:"accounts" json:"accounts" yaml:"accounts"`
	InitialBalance int64   `koanf:"initial_balance" json:"initial_balance" yaml:"initial_balance"`
	Workers        int     `koanf:"workers" json:"workers" yaml:"workers"`
	Rate           float64 `koanf:"rate" json:"rate" yaml:"rate"`
	Burst          int     `koanf:"burst" json:"burst" yaml:"burst"`
	MaxAmount      int64   `koanf:"max_amount" json:"max_amount" yaml:"max_amount"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
