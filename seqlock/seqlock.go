// File: seqlock/seqlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package seqlock provides a sequence lock for read-mostly data. Readers
// never block writers: they copy the data optimistically and retry when the
// sequence shows that a write overlapped the copy.

package seqlock

import (
	"fmt"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
	"github.com/momentics/hioload-lockfree/core/concurrency"
)

// SeqLock is a sequence counter: even means stable, odd means a writer holds
// the lock. The zero value is unlocked.
type SeqLock struct {
	_   cpu.CacheLinePad
	seq atomicx.Uint64
	_   cpu.CacheLinePad
}

// ReadBegin waits until no writer is active and returns the observed
// sequence.
func (l *SeqLock) ReadBegin() uint64 {
	var b concurrency.Backoff
	for {
		s := l.seq.Load(atomicx.Acquire)
		if s&1 == 0 {
			return s
		}
		b.Wait()
	}
}

// ReadValidate reports whether no write started since ReadBegin returned
// start. Data copied in between is consistent only if it returns true.
func (l *SeqLock) ReadValidate(start uint64) bool {
	return start&1 == 0 && l.seq.Load(atomicx.Acquire) == start
}

// WriteLock makes the sequence odd. Concurrent writers serialise on the CAS.
func (l *SeqLock) WriteLock() {
	var b concurrency.Backoff
	for !l.TryWriteLock() {
		b.Wait()
	}
}

// TryWriteLock takes the write lock if no writer holds it.
func (l *SeqLock) TryWriteLock() bool {
	s := l.seq.Load(atomicx.Relaxed)
	return s&1 == 0 && l.seq.CompareAndSwap(s, s+1, atomicx.Acquire, atomicx.Relaxed)
}

// WriteUnlock makes the sequence even again. Unlocking an unlocked SeqLock
// panics and leaves the sequence untouched.
func (l *SeqLock) WriteUnlock() {
	s := l.seq.Load(atomicx.Relaxed)
	if s&1 == 0 || !l.seq.CompareAndSwap(s, s+1, atomicx.Release, atomicx.Relaxed) {
		panic(fmt.Errorf("%w: seqlock unlocked while not held (seq %d)", api.ErrInvalidArgument, s))
	}
}

// Sequence returns the current counter. Its parity tells whether a write is
// in progress; its value divided by two counts completed writes.
func (l *SeqLock) Sequence() uint64 {
	return l.seq.Load(atomicx.Acquire)
}
