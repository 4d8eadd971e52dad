// File: lockfree/skiplist.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Insert-only ordered skip list. Lookups walk the levels with acquire loads
// and never block; inserts are serialised by a ticket lock and link the new
// node bottom-up, so a reader that finds it on any level also finds it on
// every level below.

package lockfree

import (
	"cmp"
	"math/bits"
	"sync/atomic"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
	"github.com/momentics/hioload-lockfree/core/atomicx"
	"github.com/momentics/hioload-lockfree/spin"
)

// SkipMaxLevel bounds the tower height of a skip list node.
const SkipMaxLevel = 16

type skipEntry[K cmp.Ordered, V any] struct {
	key  K
	val  V
	next []atomicx.Uint32 // one link per level, len is the tower height
}

// SkipList is an ordered map with lock-free Find and Range. Entries are
// never removed.
type SkipList[K cmp.Ordered, V any] struct {
	head  [SkipMaxLevel]atomicx.Uint32
	level atomicx.Uint32
	hash  func(K) uint64
	mu    spin.TicketLock
	size  atomic.Int64
	nodes *arena.Arena[skipEntry[K, V]]
}

// NewSkipList creates an empty skip list. Only WithCapacity applies.
func NewSkipList[K cmp.Ordered, V any](opts ...Option) *SkipList[K, V] {
	cfg := buildConfig(opts)
	s := &SkipList[K, V]{
		hash:  defaultHasher[K](),
		nodes: arena.New[skipEntry[K, V]](cfg.arenaOption()),
	}
	s.level.Store(1, atomicx.Relaxed)
	return s
}

// towerHeight draws a geometric height from the seeded key hash, so heights
// are independent of insertion order.
func (s *SkipList[K, V]) towerHeight(k K) int {
	return min(1+bits.TrailingZeros64(s.hash(k)), SkipMaxLevel)
}

// link returns the level lvl successor word of pred; handle 0 is the head.
func (s *SkipList[K, V]) link(pred uint32, lvl int) *atomicx.Uint32 {
	if pred == 0 {
		return &s.head[lvl]
	}
	return &s.nodes.Node(pred).Value.next[lvl]
}

// seek returns the first node whose key is not below k, recording the last
// node before it on every level in preds when preds is not nil.
func (s *SkipList[K, V]) seek(k K, preds *[SkipMaxLevel]uint32) uint32 {
	var pred uint32
	for lvl := int(s.level.Load(atomicx.Acquire)) - 1; lvl >= 0; lvl-- {
		for {
			h := s.link(pred, lvl).Load(atomicx.Acquire)
			if h == 0 || cmp.Compare(s.nodes.Node(h).Value.key, k) >= 0 {
				break
			}
			pred = h
		}
		if preds != nil {
			preds[lvl] = pred
		}
	}
	return s.link(pred, 0).Load(atomicx.Acquire)
}

// Insert adds k=v unless k is present. It returns false when the key already
// existed and an error only when the node arena is exhausted.
func (s *SkipList[K, V]) Insert(p api.Participant, k K, v V) (bool, error) {
	p.Enter()
	defer p.Leave()
	s.mu.Lock()
	defer s.mu.Unlock()

	var preds [SkipMaxLevel]uint32
	if h := s.seek(k, &preds); h != 0 && cmp.Compare(s.nodes.Node(h).Value.key, k) == 0 {
		return false, nil
	}
	height := s.towerHeight(k)
	h, err := s.nodes.Alloc(skipEntry[K, V]{
		key:  k,
		val:  v,
		next: make([]atomicx.Uint32, height),
	})
	if err != nil {
		return false, err
	}
	n := &s.nodes.Node(h).Value
	for lvl := 0; lvl < height; lvl++ {
		n.next[lvl].Store(s.link(preds[lvl], lvl).Load(atomicx.Relaxed), atomicx.Relaxed)
	}
	for lvl := 0; lvl < height; lvl++ {
		s.link(preds[lvl], lvl).Store(h, atomicx.Release)
	}
	// Raised after linking: readers that see the new height find the node.
	if uint32(height) > s.level.Load(atomicx.Relaxed) {
		s.level.Store(uint32(height), atomicx.Release)
	}
	s.size.Add(1)
	return true, nil
}

// Find returns the value stored under k.
func (s *SkipList[K, V]) Find(p api.Participant, k K) (v V, ok bool) {
	p.Enter()
	defer p.Leave()
	if h := s.seek(k, nil); h != 0 {
		if e := &s.nodes.Node(h).Value; cmp.Compare(e.key, k) == 0 {
			return e.val, true
		}
	}
	return v, false
}

// Range calls fn in ascending key order, stopping early if fn returns
// false. Keys inserted during the walk may or may not be visited.
func (s *SkipList[K, V]) Range(p api.Participant, fn func(K, V) bool) {
	p.Enter()
	defer p.Leave()
	for h := s.head[0].Load(atomicx.Acquire); h != 0; {
		e := &s.nodes.Node(h).Value
		if !fn(e.key, e.val) {
			return
		}
		h = e.next[0].Load(atomicx.Acquire)
	}
}

// Len returns the number of entries.
func (s *SkipList[K, V]) Len() int { return int(s.size.Load()) }

// Level returns the current height of the tallest tower.
func (s *SkipList[K, V]) Level() int { return int(s.level.Load(atomicx.Acquire)) }

// Nodes reports arena occupancy.
func (s *SkipList[K, V]) Nodes() arena.Stats { return s.nodes.Stats() }
