// Package cell provides an atomic single-value cell.
//
// A Cell holds one value that any goroutine may read or replace without
// coordinating with other values. Updates run a read-compute-swap loop over
// a versioned snapshot:
//
//   - Lock-free: Deref never blocks, Update retries only when another
//     writer won the race
//   - Validation: a rejected value aborts the update without retrying
//   - Watches: invoked after every successful change with (old, new)
//
// Usage:
//
//	hits, _ := cell.New(0, cell.WithValidator(func(n int) error {
//		if n < 0 {
//			return errors.New("negative")
//		}
//		return nil
//	}))
//	hits.Update(func(n int) int { return n + 1 })
//
// Update functions may run more than once under contention and must be
// free of side effects.
package cell
