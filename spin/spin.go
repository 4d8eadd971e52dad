// File: spin/spin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package spin provides busy-wait locks for very short critical sections:
// test-and-set, test-and-test-and-set, and a FIFO ticket lock. Each
// implements sync.Locker. Waiters back off and eventually yield the P, so a
// preempted holder does not starve the scheduler.

package spin

import (
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/core/atomicx"
	"github.com/momentics/hioload-lockfree/core/concurrency"
)

var (
	_ sync.Locker = (*TASLock)(nil)
	_ sync.Locker = (*TTASLock)(nil)
	_ sync.Locker = (*TicketLock)(nil)
)

// TASLock swaps the flag on every attempt.
type TASLock struct {
	_    cpu.CacheLinePad
	flag atomicx.Uint32
	_    cpu.CacheLinePad
}

func (l *TASLock) Lock() {
	var b concurrency.Backoff
	for l.flag.Swap(1, atomicx.Acquire) != 0 {
		b.Wait()
	}
}

// TryLock acquires the lock if it is free.
func (l *TASLock) TryLock() bool {
	return l.flag.Swap(1, atomicx.Acquire) == 0
}

func (l *TASLock) Unlock() {
	l.flag.Store(0, atomicx.Release)
}

// TTASLock spins on a plain load and only attempts the CAS once the flag
// looks free, keeping the cache line shared while waiting.
type TTASLock struct {
	_    cpu.CacheLinePad
	flag atomicx.Uint32
	_    cpu.CacheLinePad
}

func (l *TTASLock) Lock() {
	var b concurrency.Backoff
	for {
		for l.flag.Load(atomicx.Relaxed) != 0 {
			b.Wait()
		}
		if l.TryLock() {
			return
		}
	}
}

// TryLock acquires the lock if it is free.
func (l *TTASLock) TryLock() bool {
	return l.flag.CompareAndSwap(0, 1, atomicx.Acquire, atomicx.Relaxed)
}

func (l *TTASLock) Unlock() {
	l.flag.Store(0, atomicx.Release)
}

// TicketLock grants the lock in arrival order.
type TicketLock struct {
	_       cpu.CacheLinePad
	next    atomicx.Uint32
	_       cpu.CacheLinePad
	serving atomicx.Uint32
	_       cpu.CacheLinePad
}

func (l *TicketLock) Lock() {
	ticket := l.next.Add(1, atomicx.Relaxed) - 1
	var b concurrency.Backoff
	for l.serving.Load(atomicx.Acquire) != ticket {
		b.Wait()
	}
}

// TryLock takes a ticket only if it would be served immediately.
func (l *TicketLock) TryLock() bool {
	s := l.serving.Load(atomicx.Acquire)
	return l.next.CompareAndSwap(s, s+1, atomicx.Acquire, atomicx.Relaxed)
}

func (l *TicketLock) Unlock() {
	l.serving.Add(1, atomicx.Release)
}

// Waiting returns the number of goroutines queued behind the holder.
func (l *TicketLock) Waiting() int {
	n := int(l.next.Load(atomicx.Relaxed) - l.serving.Load(atomicx.Relaxed))
	if n > 0 {
		n--
	}
	return n
}
