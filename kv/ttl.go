package kv

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// TTLMap layers expiry on top of a plain map. Deadlines live in a btree
// ordered by expiry time, so eviction on write only touches entries that are
// actually due. The clock is injected to make expiry testable without wall
// time.
type TTLMap[K comparable, V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries   map[K]ttlEntry[V]
	deadlines *btree.BTreeG[deadline[K]]
	seq       uint64
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
	seq     uint64
}

// seq breaks ties between deadlines that fall on the same instant
type deadline[K comparable] struct {
	at  time.Time
	seq uint64
	key K
}

func NewTTLMap[K comparable, V any](ttl time.Duration, now func() time.Time) *TTLMap[K, V] {
	if now == nil {
		now = time.Now
	}
	return &TTLMap[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]ttlEntry[V]),
		deadlines: btree.NewG(2, func(a, b deadline[K]) bool {
			if !a.at.Equal(b.at) {
				return a.at.Before(b.at)
			}
			return a.seq < b.seq
		}),
	}
}

var _ KVS[string, any] = (*TTLMap[string, any])(nil)

// Get implements KVS. An entry past its deadline is dropped and reported as
// missing.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !e.expires.After(m.now()) {
		m.deadlines.Delete(deadline[K]{at: e.expires, seq: e.seq, key: key})
		delete(m.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set implements KVS. Every write also evicts whatever is due.
func (m *TTLMap[K, V]) Set(key K, value V) {
	m.SetWithTTL(key, value, m.ttl)
}

// SetWithTTL writes an entry with its own deadline instead of the map
// default.
func (m *TTLMap[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictDue(now)

	if old, ok := m.entries[key]; ok {
		m.deadlines.Delete(deadline[K]{at: old.expires, seq: old.seq, key: key})
	}

	m.seq++
	e := ttlEntry[V]{value: value, expires: now.Add(ttl), seq: m.seq}
	m.entries[key] = e
	m.deadlines.ReplaceOrInsert(deadline[K]{at: e.expires, seq: e.seq, key: key})
}

var _ TTLSetter[string, any] = (*TTLMap[string, any])(nil)

// Delete implements KVS
func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		m.deadlines.Delete(deadline[K]{at: e.expires, seq: e.seq, key: key})
		delete(m.entries, key)
	}
}

// Range visits live entries only.
func (m *TTLMap[K, V]) Range(f func(key K, value V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !e.expires.After(now) {
			continue
		}
		if !f(k, e.value) {
			return
		}
	}
}

func (m *TTLMap[K, V]) Close() error { return nil }

func (m *TTLMap[K, V]) evictDue(now time.Time) {
	for {
		d, ok := m.deadlines.Min()
		if !ok || d.at.After(now) {
			return
		}
		m.deadlines.DeleteMin()
		if e, ok := m.entries[d.key]; ok && e.seq == d.seq {
			delete(m.entries, d.key)
		}
	}
}
