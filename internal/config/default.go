package config

import (
	"time"

	"github.com/yndnr/stmkit/internal/telemetry/tracer"
	"github.com/yndnr/stmkit/pkg/stm"
)

// Default configuration values.
const (
	DefaultAwaitTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultMetricsAddr  = "127.0.0.1:9464"
	DefaultServiceName  = "stmkit"
	DefaultOTLPEndpoint = "localhost:4317"

	DefaultAccounts       = 16
	DefaultInitialBalance = 1000
	DefaultWorkers        = 8
	DefaultRate           = 2000
	DefaultBurst          = 200
	DefaultMaxAmount      = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		STM: STMSection{
			BackoffBase: stm.DefaultBackoffBase,
			BackoffMax:  stm.DefaultBackoffMax,
		},
		Agent: AgentSection{
			AwaitTimeout:    DefaultAwaitTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Telemetry: TelemetrySection{
			MetricsAddr:   DefaultMetricsAddr,
			TraceExporter: tracer.ExporterNone,
			OTLPEndpoint:  DefaultOTLPEndpoint,
			OTLPInsecure:  true,
			ServiceName:   DefaultServiceName,
		},
		Load: LoadSection{
			Accounts:       DefaultAccounts,
			InitialBalance: DefaultInitialBalance,
			Workers:        DefaultWorkers,
			Rate:           DefaultRate,
			Burst:          DefaultBurst,
			MaxAmount:      DefaultMaxAmount,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
