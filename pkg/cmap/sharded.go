package cmap

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the shard count used when none is configured.
const DefaultShardCount = 16

// Map is a concurrent map from string keys to V.
type Map[V any] struct {
	shards []*shard[V]
	mask   uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// Option configures a Map.
type Option func(*settings)

type settings struct {
	shardCount int
}

// WithShardCount sets the number of shards. n must be a power of two;
// other values fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(s *settings) {
		s.shardCount = n
	}
}

// New creates an empty map.
func New[V any](opts ...Option) *Map[V] {
	s := settings{shardCount: DefaultShardCount}
	for _, opt := range opts {
		opt(&s)
	}
	n := s.shardCount
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}

	m := &Map[V]{
		shards: make([]*shard[V], n),
		mask:   uint64(n - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

// ShardIndex returns the shard a key belongs to.
func (m *Map[V]) ShardIndex(key string) int {
	return int(murmur3.Sum64([]byte(key)) & m.mask)
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[m.ShardIndex(key)]
}

// ShardCount returns the number of shards.
func (m *Map[V]) ShardCount() int {
	return len(m.shards)
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key, replacing any previous value.
func (m *Map[V]) Set(key string, v V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = v
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	return true
}

// LoadOrCreate returns the value under key, or stores the result of
// create if the key is absent. created reports whether create ran and
// succeeded. create runs under the shard lock and must not use m.
func (m *Map[V]) LoadOrCreate(key string, create func() (V, error)) (v V, created bool, err error) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		return existing, false, nil
	}
	v, err = create()
	if err != nil {
		var zero V
		return zero, false, err
	}
	s.items[key] = v
	return v, true, nil
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
