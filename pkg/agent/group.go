package agent

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/stmkit/pkg/stm"
)

// Awaiter is implemented by every *Agent[T].
type Awaiter interface {
	Await(ctx context.Context) error
}

// AwaitAll waits for every agent's previously sent actions. It returns the
// first error, after all waits have returned.
func AwaitAll(ctx context.Context, agents ...Awaiter) error {
	var g errgroup.Group
	for _, a := range agents {
		if a == nil {
			continue
		}
		g.Go(func() error {
			return a.Await(ctx)
		})
	}
	return g.Wait()
}

// SendOnCommit sends action to a as a CPU-class action once tx commits.
// Attempts that do not commit send nothing.
func SendOnCommit[T any](tx *stm.Txn, a *Agent[T], action Action[T]) {
	SendClassOnCommit(tx, a, action, ClassCPU)
}

// SendClassOnCommit is SendOnCommit for an explicit class. A send that
// fails after the commit is logged.
func SendClassOnCommit[T any](tx *stm.Txn, a *Agent[T], action Action[T], class Class) {
	tx.OnCommit(func() {
		if err := a.SendClass(action, class); err != nil {
			a.logger.Warn("send after commit failed",
				slog.String("txn_id", tx.ID()),
				slog.String("error", err.Error()),
			)
		}
	})
}
