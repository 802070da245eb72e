// =============================================================================
// Withdrawal Reconciler - Result Memo
// =============================================================================
//
// This module keeps the most recent pipeline result keyed by the extract
// fingerprint. An entry older than the TTL is a miss; a failed computation
// leaves the stored entry untouched.
//
// =============================================================================

package cache

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// MEMO
// =============================================================================

// Memo holds the most recent computed value together with the key it was
// computed for. It is safe for concurrent use.
type Memo[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	entry *entry[V]
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// New creates a Memo whose entries expire after ttl.
func New[V any](ttl time.Duration) *Memo[V] {
	return &Memo[V]{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (m *Memo[V]) WithClock(now func() time.Time) *Memo[V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// Get returns the value stored for key if it has not expired.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(key)
}

// Put stores value under key, replacing any previous entry.
func (m *Memo[V]) Put(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = &entry[V]{key: key, value: value, storedAt: m.now()}
}

// Last returns the most recently stored value regardless of key or age.
func (m *Memo[V]) Last() (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		var zero V
		return zero, false
	}
	return m.entry.value, true
}

// Invalidate drops the stored entry.
func (m *Memo[V]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
}

// =============================================================================
// COMPUTE
// =============================================================================

// GetOrCompute returns the value for key, calling compute on a miss. The
// result of compute is stored only when it succeeds and ctx is still live;
// otherwise the previous entry is kept. hit reports whether compute was
// skipped.
//
// The lock is held while compute runs so concurrent callers for the same
// key compute once.
func (m *Memo[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (value V, hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.lookup(key); ok {
		return v, true, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}
	if err := ctx.Err(); err != nil {
		var zero V
		return zero, false, err
	}

	m.entry = &entry[V]{key: key, value: v, storedAt: m.now()}
	return v, false, nil
}

func (m *Memo[V]) lookup(key string) (V, bool) {
	var zero V
	if m.entry == nil || m.entry.key != key {
		return zero, false
	}
	if m.ttl > 0 && m.now().Sub(m.entry.storedAt) >= m.ttl {
		return zero, false
	}
	return m.entry.value, true
}
