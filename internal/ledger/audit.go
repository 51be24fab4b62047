package ledger

import (
	"slices"
	"time"

	"github.com/yndnr/stmkit/pkg/agent"
)

// Kind names the change an audit entry records.
type Kind string

const (
	KindOpen     Kind = "open"
	KindTransfer Kind = "transfer"
	KindDeposit  Kind = "deposit"
)

// Entry is one committed change.
type Entry struct {
	TxnID  string    `json:"txn_id,omitempty" yaml:"txn_id,omitempty"`
	Kind   Kind      `json:"kind" yaml:"kind"`
	From   string    `json:"from,omitempty" yaml:"from,omitempty"`
	To     string    `json:"to" yaml:"to"`
	Amount int64     `json:"amount" yaml:"amount"`
	At     time.Time `json:"at" yaml:"at"`
}

// record returns an audit action appending e and keeping at most limit
// entries. The result never shares its backing array with the input, so
// slices returned by Audit stay unchanged.
func record(e Entry, limit int) agent.Action[[]Entry] {
	return func(log []Entry) ([]Entry, error) {
		next := append(slices.Clip(log), e)
		if len(next) > limit {
			next = slices.Clone(next[len(next)-limit:])
		}
		return next, nil
	}
}
