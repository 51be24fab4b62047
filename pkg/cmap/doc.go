// Package cmap provides a concurrent string-keyed map split into shards.
//
// Each shard has its own RWMutex and keys are assigned to shards by their
// murmur3 hash, so goroutines working on different keys rarely contend.
// The ledger uses it as its account directory.
//
// Usage:
//
//	m := cmap.New[*stm.Ref[int64]](cmap.WithShardCount(32))
//	ref, created, err := m.LoadOrCreate("acct-1", func() (*stm.Ref[int64], error) {
//		return stm.NewRef[int64](0)
//	})
//
// Range and Keys lock one shard at a time, so they do not see a single
// consistent snapshot of the whole map.
package cmap
