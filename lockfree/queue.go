// File: lockfree/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Michael-Scott queue with a permanent dummy node. Hazard slot 0 guards the
// head (or tail) node, slot 1 guards its successor.

package lockfree

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

// Queue is an unbounded (arena-bounded) lock-free FIFO.
type Queue[T any] struct {
	_     cpu.CacheLinePad
	head  atomicx.TaggedWord
	_     cpu.CacheLinePad
	tail  atomicx.TaggedWord
	_     cpu.CacheLinePad
	size  atomic.Int64
	nodes *arena.Arena[T]
}

// NewQueue creates an empty queue. The dummy node takes one arena slot.
func NewQueue[T any](opts ...Option) *Queue[T] {
	cfg := buildConfig(opts)
	cfg.Capacity++
	q := &Queue[T]{nodes: arena.New[T](cfg.arenaOption())}
	var zero T
	dummy, err := q.nodes.Alloc(zero)
	if err != nil {
		panic(err)
	}
	q.head.Store(atomicx.MakeTagged(dummy, 0), atomicx.Relaxed)
	q.tail.Store(atomicx.MakeTagged(dummy, 0), atomicx.Release)
	return q
}

// Enqueue appends v. It fails only when the node arena is exhausted.
func (q *Queue[T]) Enqueue(p api.Participant, v T) error {
	h, err := q.nodes.Alloc(v)
	if err != nil {
		return err
	}
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Leave()
	}()
	for {
		tail := p.Protect(0, &q.tail)
		tn := q.nodes.Node(tail.Index())
		next := tn.Next.Load(atomicx.Acquire)
		if tail != q.tail.Load(atomicx.Acquire) {
			continue
		}
		if !next.IsNil() {
			// Tail lags behind: help the slow enqueuer and retry.
			q.tail.CompareAndSwap(tail, next.Index(), atomicx.Release, atomicx.Relaxed)
			continue
		}
		if tn.Next.CompareAndSwapWeak(next, h, atomicx.Release, atomicx.Relaxed) {
			q.tail.CompareAndSwap(tail, h, atomicx.Release, atomicx.Relaxed)
			q.size.Add(1)
			return nil
		}
	}
}

// Dequeue removes the oldest value. ok is false when the queue was observed
// empty.
func (q *Queue[T]) Dequeue(p api.Participant) (v T, ok bool) {
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Clear(1)
		p.Leave()
	}()
	for {
		head := p.Protect(0, &q.head)
		hn := q.nodes.Node(head.Index())
		next := p.Protect(1, &hn.Next)
		tail := q.tail.Load(atomicx.Acquire)
		if head != q.head.Load(atomicx.Acquire) {
			continue
		}
		if next.IsNil() {
			return v, false
		}
		if head.Index() == tail.Index() {
			q.tail.CompareAndSwap(tail, next.Index(), atomicx.Release, atomicx.Relaxed)
			continue
		}
		// Read before the CAS: afterwards another dequeuer may retire next.
		val := q.nodes.Node(next.Index()).Value
		if q.head.CompareAndSwapWeak(head, next.Index(), atomicx.AcqRel, atomicx.Acquire) {
			p.Clear(0)
			q.nodes.Retire(head.Index())
			p.Retire(head.Index(), q.nodes.Free)
			q.size.Add(-1)
			return val, true
		}
	}
}

// Len is approximate under concurrent use.
func (q *Queue[T]) Len() int { return int(q.size.Load()) }

// Nodes exposes arena statistics. The dummy counts as live.
func (q *Queue[T]) Nodes() arena.Stats { return q.nodes.Stats() }
