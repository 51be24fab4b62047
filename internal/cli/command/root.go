package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stmkit/internal/cli/output"
	"github.com/yndnr/stmkit/internal/config"
	"github.com/yndnr/stmkit/internal/infra/buildinfo"
	"github.com/yndnr/stmkit/internal/infra/confloader"
	"github.com/yndnr/stmkit/internal/telemetry/logger"
	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/stm"
)

const envKey = "stmkit.env"

// ErrCheckFailed is returned when a workload finishes but its result
// breaks an expected invariant.
var ErrCheckFailed = errors.New("check failed")

// env is the per-invocation state built by the Before hook.
type env struct {
	cfg        *config.Config
	loader     *confloader.Loader
	configPath string
	format     output.Format
	log        logger.Logger
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "stmkit",
		Usage:   "Exercise atomic cells, STM refs and agents",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			CounterCommand(),
			TransferCommand(),
			ContentionCommand(),
			AgentsCommand(),
			SoakCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"STMKIT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// setup loads the configuration and installs the logger.
func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	overrides := make(map[string]any)
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}

	path := c.String("config")
	cfg, loader, err := config.Load(path, overrides)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	c.App.Metadata[envKey] = &env{
		cfg:        cfg,
		loader:     loader,
		configPath: path,
		format:     format,
		log:        log,
	}
	return nil
}

func envFrom(c *cli.Context) (*env, error) {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return e, nil
}

// render writes data to the app writer in the selected format.
func (e *env) render(w io.Writer, data any) error {
	return output.NewFormatter(e.format).Format(w, data)
}

// runtime builds an STM runtime from the stm section.
func (e *env) runtime(obs stm.Observer) *stm.Runtime {
	return stm.NewRuntime(
		stm.WithMaxAttempts(e.cfg.STM.MaxAttempts),
		stm.WithBackoff(e.cfg.STM.BackoffBase, e.cfg.STM.BackoffMax),
		stm.WithLogger(e.log.Slog()),
		stm.WithObserver(obs),
	)
}

// dispatcher builds an agent dispatcher from the agent section.
func (e *env) dispatcher(obs agent.Observer) *agent.Dispatcher {
	return agent.NewDispatcher(
		agent.WithCPUWorkers(e.cfg.Agent.CPUWorkers),
		agent.WithIOLimit(e.cfg.Agent.IOLimit),
		agent.WithLogger(e.log.Slog()),
		agent.WithObserver(obs),
	)
}

// intFlag returns the flag value when set and fallback otherwise.
func intFlag(c *cli.Context, name string, fallback int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	return fallback
}

func checkFailed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCheckFailed, fmt.Sprintf(format, args...))
}
