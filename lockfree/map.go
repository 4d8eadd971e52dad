// File: lockfree/map.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-bucket hash map with insert-at-head chains. A published entry is
// never modified, so a reader holding a protected chain head can walk the
// rest of the chain without further announcements.

package lockfree

import (
	"fmt"
	"hash/maphash"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

type entry[K comparable, V any] struct {
	key K
	val V
}

// Map is a lock-free insert-only hash map with a fixed bucket count.
type Map[K comparable, V any] struct {
	buckets []atomicx.TaggedWord
	mask    uint64
	hash    func(K) uint64
	size    atomic.Int64
	nodes   *arena.Arena[entry[K, V]]
}

// NewMap creates an empty map. Invalid bucket counts and hashers of the
// wrong key type panic with api.ErrInvalidArgument.
func NewMap[K comparable, V any](opts ...Option) *Map[K, V] {
	cfg := buildConfig(opts)
	cfg.validateBuckets()
	m := &Map[K, V]{
		buckets: make([]atomicx.TaggedWord, cfg.Buckets),
		mask:    uint64(cfg.Buckets - 1),
		nodes:   arena.New[entry[K, V]](cfg.arenaOption()),
	}
	switch h := cfg.hasher.(type) {
	case nil:
		m.hash = defaultHasher[K]()
	case func(K) uint64:
		m.hash = h
	default:
		panic(fmt.Errorf("%w: hasher %T does not match key type", api.ErrInvalidArgument, cfg.hasher))
	}
	return m
}

// defaultHasher uses xxhash for string keys and the runtime hash otherwise.
func defaultHasher[K comparable]() func(K) uint64 {
	var zero K
	if _, ok := any(zero).(string); ok {
		return func(k K) uint64 { return xxhash.Sum64String(any(k).(string)) }
	}
	seed := maphash.MakeSeed()
	return func(k K) uint64 { return maphash.Comparable(seed, k) }
}

func (m *Map[K, V]) bucket(k K) *atomicx.TaggedWord {
	return &m.buckets[m.hash(k)&m.mask]
}

// lookup walks the chain starting at head.
func (m *Map[K, V]) lookup(head atomicx.TaggedRef, k K) (*entry[K, V], bool) {
	for h := head.Index(); h != 0; {
		n := m.nodes.Node(h)
		if n.Value.key == k {
			return &n.Value, true
		}
		h = n.Next.Load(atomicx.Acquire).Index()
	}
	return nil, false
}

// Insert adds k=v unless k is present. It returns false when the key already
// existed and an error only when the node arena is exhausted.
func (m *Map[K, V]) Insert(p api.Participant, k K, v V) (bool, error) {
	b := m.bucket(k)
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Leave()
	}()
	var h uint32
	for {
		head := p.Protect(0, b)
		if _, found := m.lookup(head, k); found {
			if h != 0 {
				m.nodes.Discard(h)
			}
			return false, nil
		}
		if h == 0 {
			var err error
			if h, err = m.nodes.Alloc(entry[K, V]{key: k, val: v}); err != nil {
				return false, err
			}
		}
		m.nodes.Node(h).Next.Store(atomicx.MakeTagged(head.Index(), 0), atomicx.Relaxed)
		if b.CompareAndSwapWeak(head, h, atomicx.Release, atomicx.Relaxed) {
			m.size.Add(1)
			return true, nil
		}
	}
}

// Find returns the value stored under k.
func (m *Map[K, V]) Find(p api.Participant, k K) (v V, ok bool) {
	b := m.bucket(k)
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Leave()
	}()
	head := p.Protect(0, b)
	if e, found := m.lookup(head, k); found {
		return e.val, true
	}
	return v, false
}

// Range calls fn for every entry visible at the time its bucket is read,
// stopping early if fn returns false.
func (m *Map[K, V]) Range(p api.Participant, fn func(K, V) bool) {
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Leave()
	}()
	for i := range m.buckets {
		head := p.Protect(0, &m.buckets[i])
		for h := head.Index(); h != 0; {
			n := m.nodes.Node(h)
			if !fn(n.Value.key, n.Value.val) {
				return
			}
			h = n.Next.Load(atomicx.Acquire).Index()
		}
	}
}

// Reset detaches every chain and retires its entries. Concurrent readers
// that already hold a chain keep it alive until they leave.
func (m *Map[K, V]) Reset(p api.Participant) int {
	removed := 0
	for i := range m.buckets {
		head := m.buckets[i].Swap(0, atomicx.AcqRel)
		if head.IsNil() {
			continue
		}
		removed += m.retireChain(p, head.Index())
	}
	m.size.Add(-int64(removed))
	return removed
}

// retireChain retires every entry of a detached chain. The chain is freed
// as a whole once the last of its entries passes reclamation, because a
// reader protecting any entry may still walk to its successors.
func (m *Map[K, V]) retireChain(p api.Participant, head uint32) int {
	var chain []uint32
	for h := head; h != 0; h = m.nodes.Node(h).Next.Load(atomicx.Acquire).Index() {
		chain = append(chain, h)
	}
	for _, h := range chain {
		m.nodes.Retire(h)
	}
	var remaining atomic.Int32
	remaining.Store(int32(len(chain)))
	release := func(uint32) {
		if remaining.Add(-1) == 0 {
			for _, h := range chain {
				m.nodes.Free(h)
			}
		}
	}
	for _, h := range chain {
		p.Retire(h, release)
	}
	return len(chain)
}

// Len is approximate under concurrent use.
func (m *Map[K, V]) Len() int { return int(m.size.Load()) }

// Nodes exposes arena statistics.
func (m *Map[K, V]) Nodes() arena.Stats { return m.nodes.Stats() }
