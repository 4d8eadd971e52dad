// File: core/concurrency/ring.go
// Package concurrency implements lock-free ring buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SPSCRing is a bounded circular buffer for exactly one producer and one
// consumer. Each index has a single writer, so no CAS is needed: the owner
// publishes its index with a release store and the peer reads it with an
// acquire load. One slot is always left empty to tell full from empty.

package concurrency

import (
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

// Ensure compile-time interface compliance.
var _ api.Ring[any] = (*SPSCRing[any])(nil)

// SPSCRing is a lock-free single-producer single-consumer ring buffer.
type SPSCRing[T any] struct {
	data  []T
	mask  uint64
	_     cpu.CacheLinePad
	write atomicx.Uint64 // written by the producer only
	_     cpu.CacheLinePad
	read  atomicx.Uint64 // written by the consumer only
	_     cpu.CacheLinePad
}

// NewSPSCRing allocates a ring of capacity rounded up to a power of two.
// The ring holds at most capacity-1 items.
func NewSPSCRing[T any](capacity uint64) *SPSCRing[T] {
	if err := ValidateCapacity(capacity); err != nil {
		panic(err)
	}
	size := roundPow2(capacity)
	return &SPSCRing[T]{
		data: make([]T, size),
		mask: size - 1,
	}
}

// TryEnqueue adds item; returns false if full. Producer goroutine only.
func (r *SPSCRing[T]) TryEnqueue(item T) bool {
	w := r.write.Load(atomicx.Relaxed)
	next := (w + 1) & r.mask
	if next == r.read.Load(atomicx.Acquire) {
		return false
	}
	r.data[w] = item
	r.write.Store(next, atomicx.Release)
	return true
}

// TryDequeue removes and returns item; ok false if empty. Consumer goroutine only.
func (r *SPSCRing[T]) TryDequeue() (T, bool) {
	var zero T
	rd := r.read.Load(atomicx.Relaxed)
	if rd == r.write.Load(atomicx.Acquire) {
		return zero, false
	}
	item := r.data[rd]
	r.data[rd] = zero
	r.read.Store((rd+1)&r.mask, atomicx.Release)
	return item, true
}

// Len returns number of items currently in buffer.
func (r *SPSCRing[T]) Len() int {
	w := r.write.Load(atomicx.Acquire)
	rd := r.read.Load(atomicx.Acquire)
	return int((w - rd) & r.mask)
}

// Cap returns the number of items the ring can hold.
func (r *SPSCRing[T]) Cap() int {
	return len(r.data) - 1
}

// roundPow2 rounds size up to a power of two, minimum 2.
func roundPow2(size uint64) uint64 {
	if size < 2 {
		return 2
	}
	if size&(size-1) != 0 {
		n := size - 1
		n |= n >> 1
		n |= n >> 2
		n |= n >> 4
		n |= n >> 8
		n |= n >> 16
		n |= n >> 32
		size = n + 1
	}
	return size
}
