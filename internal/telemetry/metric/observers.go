package metric

import (
	"time"

	"github.com/yndnr/stmkit/internal/ledger"
	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/cell"
	"github.com/yndnr/stmkit/pkg/stm"
)

// Cell returns a cell.Observer that records into r.
func (r *Registry) Cell() cell.Observer {
	return cellObserver{r}
}

// STM returns a stm.Observer that records into r.
func (r *Registry) STM() stm.Observer {
	return stmObserver{r}
}

// Agent returns an agent.Observer that records into r.
func (r *Registry) Agent() agent.Observer {
	return agentObserver{r}
}

// Ledger returns a ledger.Observer that records into r.
func (r *Registry) Ledger() ledger.Observer {
	return ledgerObserver{r}
}

type cellObserver struct{ r *Registry }

func (o cellObserver) Swapped(name string, retries int) {
	o.r.CellSwaps.WithLabelValues(name).Inc()
	if retries > 0 {
		o.r.CellRetries.WithLabelValues(name).Add(float64(retries))
	}
}

func (o cellObserver) Rejected(name string) {
	o.r.CellRejects.WithLabelValues(name).Inc()
}

type stmObserver struct{ r *Registry }

func (o stmObserver) Committed(attempts int, elapsed time.Duration) {
	o.r.TxnCommits.Inc()
	o.r.TxnAttempts.Observe(float64(attempts))
	o.r.TxnDuration.Observe(elapsed.Seconds())
}

func (o stmObserver) Retried(int) {
	o.r.TxnRetries.Inc()
}

func (o stmObserver) Aborted(reason string) {
	o.r.TxnAborts.WithLabelValues(reason).Inc()
}

type agentObserver struct{ r *Registry }

func (o agentObserver) Processed(class agent.Class, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.r.ActionsTotal.WithLabelValues(class.String(), result).Inc()
	o.r.ActionDuration.WithLabelValues(class.String()).Observe(elapsed.Seconds())
}

func (o agentObserver) Failed(name string) {
	o.r.AgentFailures.WithLabelValues(name).Inc()
}

func (o agentObserver) Restarted(name string) {
	o.r.AgentRestarts.WithLabelValues(name).Inc()
}

type ledgerObserver struct{ r *Registry }

func (o ledgerObserver) Transferred(result string) {
	o.r.Transfers.WithLabelValues(result).Inc()
	if result == "limited" {
		o.r.RateLimited.Inc()
	}
}
