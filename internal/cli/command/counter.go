package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stmkit/pkg/cell"
)

// CounterCommand increments one atomic cell from many goroutines.
func CounterCommand() *cli.Command {
	return &cli.Command{
		Name:  "counter",
		Usage: "Increment an atomic cell concurrently and verify the count",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "goroutines",
				Aliases: []string{"g"},
				Usage:   "Concurrent writers (default load.workers)",
			},
			&cli.IntFlag{
				Name:    "increments",
				Aliases: []string{"n"},
				Usage:   "Increments per writer",
				Value:   1000,
			},
		},
		Action: runCounter,
	}
}

type counterResult struct {
	Goroutines int           `json:"goroutines" yaml:"goroutines"`
	Increments int           `json:"increments" yaml:"increments"`
	Expected   int64         `json:"expected" yaml:"expected"`
	Actual     int64         `json:"actual" yaml:"actual"`
	Version    uint64        `json:"version" yaml:"version"`
	Retries    int64         `json:"retries" yaml:"retries"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	OK         bool          `json:"ok" yaml:"ok"`
}

func runCounter(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	goroutines := intFlag(c, "goroutines", e.cfg.Load.Workers)
	increments := c.Int("increments")
	if goroutines < 1 || increments < 0 {
		return fmt.Errorf("goroutines must be positive and increments not negative")
	}

	var st stats
	counter, err := cell.New[int64](0,
		cell.WithName[int64]("counter"),
		cell.WithObserver[int64](&st),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			for range increments {
				if _, err := counter.Update(func(n int64) int64 { return n + 1 }); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	value, version := counter.Snapshot()
	res := counterResult{
		Goroutines: goroutines,
		Increments: increments,
		Expected:   int64(goroutines) * int64(increments),
		Actual:     value,
		Version:    version,
		Retries:    st.retries.Load(),
		Elapsed:    time.Since(start),
	}
	res.OK = res.Actual == res.Expected
	e.log.Debug("counter finished", "actual", res.Actual, "retries", res.Retries)

	if err := e.render(c.App.Writer, res); err != nil {
		return err
	}
	if !res.OK {
		return checkFailed("counter is %d, want %d", res.Actual, res.Expected)
	}
	return nil
}
