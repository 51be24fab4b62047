// Package stm provides software transactional memory over typed refs.
//
// A Ref holds one value that only changes inside a committed transaction.
// Transactions run optimistically: the body reads and stages writes in a
// private Txn, and conflicts are detected at commit by comparing the
// versions recorded at first read against the committed ones. A conflict
// discards the Txn and runs the body again with a fresh one.
//
// Commit protocol:
//
//  1. Lock every touched ref in ascending id order
//  2. Verify the read set; any changed version means retry
//  3. Re-apply commute functions to the values committed at this instant
//  4. Validate every new value; a rejection aborts with ErrInvalidState
//  5. Install all values, unlock, then fire watches and OnCommit hooks
//
// No lock is held while the body runs. Validators and commute functions
// run under the commit locks and must not start transactions.
//
// Usage:
//
//	rt := stm.NewRuntime(stm.WithMaxAttempts(100))
//	err := rt.Do(ctx, func(tx *stm.Txn) error {
//		from.Alter(tx, func(b int64) int64 { return b - 10 })
//		to.Alter(tx, func(b int64) int64 { return b + 10 })
//		return nil
//	})
//
// Transaction bodies may run several times and must be free of side
// effects. Use Txn.OnCommit for effects that should happen once.
package stm
