package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stmkit/pkg/stm"
)

// ContentionCommand compares retries of alter and commute on one hot ref.
func ContentionCommand() *cli.Command {
	return &cli.Command{
		Name:  "contention",
		Usage: "Compare alter and commute retries on a single counter ref",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers (default load.workers)",
			},
			&cli.IntFlag{
				Name:    "increments",
				Aliases: []string{"n"},
				Usage:   "Increments per worker",
				Value:   500,
			},
		},
		Action: runContention,
	}
}

type contentionRow struct {
	Mode     string        `json:"mode" yaml:"mode"`
	Final    int64         `json:"final" yaml:"final"`
	Expected int64         `json:"expected" yaml:"expected"`
	Commits  int64         `json:"commits" yaml:"commits"`
	Retries  int64         `json:"retries" yaml:"retries"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// increment adds one to ref inside tx.
type increment func(tx *stm.Txn, ref *stm.Ref[int64])

func runContention(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	workers := intFlag(c, "workers", e.cfg.Load.Workers)
	increments := c.Int("increments")
	if workers < 1 || increments < 0 {
		return fmt.Errorf("workers must be positive and increments not negative")
	}

	modes := []struct {
		name string
		inc  increment
	}{
		{"alter", func(tx *stm.Txn, ref *stm.Ref[int64]) {
			ref.Alter(tx, func(n int64) int64 { return n + 1 })
		}},
		{"commute", func(tx *stm.Txn, ref *stm.Ref[int64]) {
			ref.Commute(tx, func(n int64) int64 { return n + 1 })
		}},
	}

	rows := make([]contentionRow, 0, len(modes))
	for _, m := range modes {
		row, err := contend(c.Context, e, m.name, m.inc, workers, increments)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := e.render(c.App.Writer, rows); err != nil {
		return err
	}
	for _, row := range rows {
		if row.Final != row.Expected {
			return checkFailed("%s counter is %d, want %d", row.Mode, row.Final, row.Expected)
		}
	}
	return nil
}

func contend(ctx context.Context, e *env, mode string, inc increment, workers, increments int) (contentionRow, error) {
	var st stats
	rt := e.runtime(&st)
	ref, err := stm.NewRef[int64](0, stm.WithName[int64](mode+"-counter"))
	if err != nil {
		return contentionRow{}, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for range increments {
				err := rt.Do(gctx, func(tx *stm.Txn) error {
					inc(tx, ref)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return contentionRow{}, err
	}

	e.log.Debug("contention run finished", "mode", mode, "retries", st.retries.Load())
	return contentionRow{
		Mode:     mode,
		Final:    ref.Deref(),
		Expected: int64(workers) * int64(increments),
		Commits:  st.commits.Load(),
		Retries:  st.retries.Load(),
		Elapsed:  time.Since(start),
	}, nil
}
