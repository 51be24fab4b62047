package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stmkit/internal/cli/output"
	"github.com/yndnr/stmkit/internal/ledger"
	"github.com/yndnr/stmkit/pkg/stm"
)

// TransferCommand moves money between ledger accounts from many workers
// and checks that the total is preserved.
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Run random transfers between accounts and verify the total",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "accounts",
				Aliases: []string{"k"},
				Usage:   "Number of accounts (default load.accounts)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers (default load.workers)",
			},
			&cli.IntFlag{
				Name:    "transfers",
				Aliases: []string{"n"},
				Usage:   "Transfers per worker",
				Value:   500,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Draw a progress bar on stderr",
			},
		},
		Action: runTransfer,
	}
}

type transferResult struct {
	Accounts     int           `json:"accounts" yaml:"accounts"`
	Transfers    int           `json:"transfers" yaml:"transfers"`
	Committed    int64         `json:"committed" yaml:"committed"`
	Rejected     int64         `json:"rejected" yaml:"rejected"`
	Retries      int64         `json:"retries" yaml:"retries"`
	Audited      int           `json:"audited" yaml:"audited"`
	InitialTotal int64         `json:"initial_total" yaml:"initial_total"`
	FinalTotal   int64         `json:"final_total" yaml:"final_total"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
	OK           bool          `json:"ok" yaml:"ok"`
}

func accountID(i int) string {
	return fmt.Sprintf("acct-%03d", i)
}

// openAccounts opens n accounts holding balance each.
func openAccounts(l *ledger.Ledger, n int, balance int64) ([]string, error) {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = accountID(i)
		if err := l.Open(ids[i], balance); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// randomPair picks two distinct accounts.
func randomPair(ids []string) (string, string) {
	i := rand.IntN(len(ids))
	j := rand.IntN(len(ids) - 1)
	if j >= i {
		j++
	}
	return ids[i], ids[j]
}

func runTransfer(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	accounts := intFlag(c, "accounts", e.cfg.Load.Accounts)
	workers := intFlag(c, "workers", e.cfg.Load.Workers)
	perWorker := c.Int("transfers")
	if accounts < 2 || workers < 1 || perWorker < 0 {
		return fmt.Errorf("need at least 2 accounts, 1 worker and a non-negative transfer count")
	}
	total := workers * perWorker

	var st stats
	d := e.dispatcher(nil)
	defer d.Shutdown(context.Background())

	l, err := ledger.New(e.runtime(&st), d,
		ledger.WithHistoryLimit(accounts+total),
		ledger.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	ids, err := openAccounts(l, accounts, e.cfg.Load.InitialBalance)
	if err != nil {
		return err
	}

	var bar *output.Progress
	if c.Bool("progress") {
		bar = output.NewProgress(c.App.ErrWriter, "transfers", int64(total))
	}

	ctx := c.Context
	var committed, rejected atomic.Int64
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for range perWorker {
				from, to := randomPair(ids)
				amount := 1 + rand.Int64N(e.cfg.Load.MaxAmount)
				err := l.Transfer(gctx, from, to, amount)
				switch {
				case err == nil:
					committed.Add(1)
				case errors.Is(err, stm.ErrInvalidState):
					rejected.Add(1)
				default:
					return err
				}
				if bar != nil {
					bar.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	if bar != nil {
		bar.Finish()
	}

	syncCtx, cancel := context.WithTimeout(ctx, e.cfg.Agent.AwaitTimeout)
	defer cancel()
	if err := l.Sync(syncCtx); err != nil {
		return err
	}
	final, err := l.Total(ctx)
	if err != nil {
		return err
	}

	res := transferResult{
		Accounts:     accounts,
		Transfers:    total,
		Committed:    committed.Load(),
		Rejected:     rejected.Load(),
		Retries:      st.retries.Load(),
		Audited:      len(l.Audit()),
		InitialTotal: int64(accounts) * e.cfg.Load.InitialBalance,
		FinalTotal:   final,
		Elapsed:      elapsed,
	}
	res.OK = res.FinalTotal == res.InitialTotal && res.Audited == accounts+int(res.Committed)

	if err := e.render(c.App.Writer, res); err != nil {
		return err
	}
	if !res.OK {
		return checkFailed("total %d (want %d), %d audit entries (want %d)",
			res.FinalTotal, res.InitialTotal, res.Audited, accounts+int(res.Committed))
	}
	return nil
}
