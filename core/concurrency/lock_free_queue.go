// File: core/concurrency/lock_free_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// MPMCRing is a bounded multi-producer multi-consumer queue using per-cell
// sequence numbers, after Dmitry Vyukov. The sequence alone encodes the cell
// lifecycle: seq == pos means writable, seq == pos+1 means holds data for the
// consumer at pos, seq == pos+capacity means drained and writable for the
// next lap.

package concurrency

import (
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

var _ api.Ring[any] = (*MPMCRing[any])(nil)

type cell[T any] struct {
	sequence atomicx.Uint64
	data     T
}

// MPMCRing is a lock-free bounded MPMC queue. Every cell is usable.
type MPMCRing[T any] struct {
	_       cpu.CacheLinePad
	enqueue atomicx.Uint64
	_       cpu.CacheLinePad
	dequeue atomicx.Uint64
	_       cpu.CacheLinePad
	mask    uint64
	cells   []cell[T]
}

// NewMPMCRing creates a new queue with capacity rounded to power of two.
func NewMPMCRing[T any](capacity uint64) *MPMCRing[T] {
	if err := ValidateCapacity(capacity); err != nil {
		panic(err)
	}
	size := roundPow2(capacity)
	q := &MPMCRing[T]{
		mask:  size - 1,
		cells: make([]cell[T], size),
	}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i), atomicx.Relaxed)
	}
	return q
}

// TryEnqueue adds val; returns false if full.
func (q *MPMCRing[T]) TryEnqueue(val T) bool {
	for {
		pos := q.enqueue.Load(atomicx.Relaxed)
		c := &q.cells[pos&q.mask]
		seq := c.sequence.Load(atomicx.Acquire)
		dif := int64(seq) - int64(pos)

		switch {
		case dif == 0:
			if q.enqueue.CompareAndSwapWeak(pos, pos+1, atomicx.Relaxed, atomicx.Relaxed) {
				c.data = val
				c.sequence.Store(pos+1, atomicx.Release)
				return true
			}
		case dif < 0:
			return false // full
		default:
			// another producer claimed pos, retry
		}
	}
}

// TryDequeue removes and returns an item; ok false if empty.
func (q *MPMCRing[T]) TryDequeue() (item T, ok bool) {
	for {
		pos := q.dequeue.Load(atomicx.Relaxed)
		c := &q.cells[pos&q.mask]
		seq := c.sequence.Load(atomicx.Acquire)
		dif := int64(seq) - int64(pos+1)

		switch {
		case dif == 0:
			if q.dequeue.CompareAndSwapWeak(pos, pos+1, atomicx.Relaxed, atomicx.Relaxed) {
				var zero T
				item = c.data
				c.data = zero
				c.sequence.Store(pos+q.mask+1, atomicx.Release)
				return item, true
			}
		case dif < 0:
			return item, false // empty
		default:
			// another consumer claimed pos, retry
		}
	}
}

// Len returns an approximate number of queued items.
func (q *MPMCRing[T]) Len() int {
	head := q.dequeue.Load(atomicx.Acquire)
	tail := q.enqueue.Load(atomicx.Acquire)
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// Cap returns fixed buffer capacity.
func (q *MPMCRing[T]) Cap() int {
	return len(q.cells)
}
