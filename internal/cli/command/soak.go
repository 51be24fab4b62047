package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/stmkit/internal/config"
	"github.com/yndnr/stmkit/internal/infra/buildinfo"
	"github.com/yndnr/stmkit/internal/infra/confloader"
	"github.com/yndnr/stmkit/internal/infra/shutdown"
	"github.com/yndnr/stmkit/internal/ledger"
	"github.com/yndnr/stmkit/internal/telemetry/logger"
	"github.com/yndnr/stmkit/internal/telemetry/metric"
	"github.com/yndnr/stmkit/internal/telemetry/tracer"
	"github.com/yndnr/stmkit/pkg/stm"
)

// SoakCommand runs paced transfers until interrupted, serving metrics and
// reloading the configuration file on change.
func SoakCommand() *cli.Command {
	return &cli.Command{
		Name:  "soak",
		Usage: "Run paced transfer load until SIGINT/SIGTERM or --duration",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Stop after this long (0 runs until a signal)",
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Transfers per second (default load.rate)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Prometheus listen address, empty disables (default telemetry.metrics_addr)",
			},
		},
		Action: runSoak,
	}
}

type soakResult struct {
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
	Committed    int64         `json:"committed" yaml:"committed"`
	Rejected     int64         `json:"rejected" yaml:"rejected"`
	Limited      int64         `json:"limited" yaml:"limited"`
	Audited      int           `json:"audited" yaml:"audited"`
	Reloads      int64         `json:"reloads" yaml:"reloads"`
	InitialTotal int64         `json:"initial_total" yaml:"initial_total"`
	FinalTotal   int64         `json:"final_total" yaml:"final_total"`
	OK           bool          `json:"ok" yaml:"ok"`
}

type soakCounters struct {
	committed atomic.Int64
	rejected  atomic.Int64
	limited   atomic.Int64
	reloads   atomic.Int64
}

func runSoak(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	cfg := *e.cfg
	if c.IsSet("rate") {
		cfg.Load.Rate = c.Float64("rate")
	}
	if c.IsSet("metrics-addr") {
		cfg.Telemetry.MetricsAddr = c.String("metrics-addr")
	}
	if cfg.Load.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", cfg.Load.Rate)
	}
	log := e.log.With("command", "soak")

	h := shutdown.NewHandler(cfg.Agent.ShutdownTimeout, shutdown.WithLogger(log.Slog()))
	ctx := h.Context()
	reg := metric.NewRegistry()

	if cfg.Telemetry.MetricsAddr != "" {
		srv, addr, err := serveMetrics(cfg.Telemetry.MetricsAddr, reg)
		if err != nil {
			return err
		}
		log.Info("serving metrics", "addr", addr)
		h.OnShutdown("metrics", srv.Shutdown)
	}

	tp, err := tracer.New(ctx, tracer.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: buildinfo.Version,
		Exporter:       cfg.Telemetry.TraceExporter,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		Writer:         c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	h.OnShutdown("tracer", tp.Shutdown)

	d := e.dispatcher(reg.Agent())
	if err := reg.Register(metric.NewDispatcherCollector(d)); err != nil {
		return err
	}
	h.OnShutdown("dispatcher", d.Shutdown)

	admission, err := ledger.NewLimiter(cfg.Load.Rate, cfg.Load.Burst, ledger.WithCellObserver(reg.Cell()))
	if err != nil {
		return err
	}
	l, err := ledger.New(e.runtime(reg.STM()), d,
		ledger.WithLimiter(admission),
		ledger.WithObserver(reg.Ledger()),
		ledger.WithLogger(log),
	)
	if err != nil {
		return err
	}
	ids, err := openAccounts(l, cfg.Load.Accounts, cfg.Load.InitialBalance)
	if err != nil {
		return err
	}

	var counters soakCounters
	pace := rate.NewLimiter(rate.Limit(cfg.Load.Rate), cfg.Load.Burst)

	var g errgroup.Group
	for range cfg.Load.Workers {
		g.Go(func() error {
			if err := soakWorker(ctx, l, ids, cfg.Load.MaxAmount, pace, &counters); err != nil {
				h.Trigger()
				return err
			}
			return nil
		})
	}
	h.OnShutdown("load", func(ctx context.Context) error {
		if err := g.Wait(); err != nil {
			return err
		}
		return l.Sync(ctx)
	})

	if e.configPath != "" {
		w, err := watchConfig(ctx, e, log, pace, !c.IsSet("rate"), &counters)
		if err != nil {
			return err
		}
		h.OnShutdown("watcher", func(context.Context) error { return w.Stop() })
	}

	if dur := c.Duration("duration"); dur > 0 {
		timer := time.AfterFunc(dur, h.Trigger)
		defer timer.Stop()
	}

	log.Info("soak started",
		"accounts", cfg.Load.Accounts,
		"workers", cfg.Load.Workers,
		"rate", cfg.Load.Rate,
	)
	start := time.Now()
	waitErr := h.Wait(c.Context)
	elapsed := time.Since(start)

	final, err := l.Total(context.Background())
	if err != nil {
		return errors.Join(waitErr, err)
	}
	res := soakResult{
		Elapsed:      elapsed,
		Committed:    counters.committed.Load(),
		Rejected:     counters.rejected.Load(),
		Limited:      counters.limited.Load(),
		Audited:      len(l.Audit()),
		Reloads:      counters.reloads.Load(),
		InitialTotal: int64(cfg.Load.Accounts) * cfg.Load.InitialBalance,
		FinalTotal:   final,
	}
	res.OK = res.FinalTotal == res.InitialTotal

	if err := e.render(c.App.Writer, res); err != nil {
		return errors.Join(waitErr, err)
	}
	if waitErr != nil {
		return waitErr
	}
	if !res.OK {
		return checkFailed("total %d, want %d", res.FinalTotal, res.InitialTotal)
	}
	return nil
}

func soakWorker(ctx context.Context, l *ledger.Ledger, ids []string, maxAmount int64, pace *rate.Limiter, counters *soakCounters) error {
	for {
		if err := pace.Wait(ctx); err != nil {
			return nil
		}
		from, to := randomPair(ids)
		err := l.Transfer(ctx, from, to, 1+rand.Int64N(maxAmount))
		switch {
		case err == nil:
			counters.committed.Add(1)
		case errors.Is(err, stm.ErrInvalidState):
			counters.rejected.Add(1)
		case errors.Is(err, ledger.ErrRateLimited):
			counters.limited.Add(1)
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

// serveMetrics starts the /metrics endpoint and returns the bound address.
func serveMetrics(addr string, reg *metric.Registry) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return srv, ln.Addr().String(), nil
}

// watchConfig reloads the configuration file on change and applies the
// new log level and, unless pinned by a flag, the new pacing.
func watchConfig(ctx context.Context, e *env, log logger.Logger, pace *rate.Limiter, applyRate bool, counters *soakCounters) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(e.configPath); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(path string) {
		next, err := config.Reload(e.loader)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn("log level not applied", "error", err)
		}
		if applyRate {
			pace.SetLimit(rate.Limit(next.Load.Rate))
			pace.SetBurst(next.Load.Burst)
		}
		counters.reloads.Add(1)
		log.Info("config reloaded", "path", path, "log_level", next.Log.Level, "rate", next.Load.Rate)
	})
	go w.Run(ctx)
	return w, nil
}
