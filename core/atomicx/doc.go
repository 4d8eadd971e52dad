// File: core/atomicx/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package atomicx is the atomic primitive layer of hioload-lockfree.
//
// Every operation takes explicit memory orderings in the vocabulary of the
// C11/C++11 model (Relaxed, Acquire, Release, AcqRel, SeqCst). The Go memory
// model gives all sync/atomic operations sequentially consistent semantics,
// which is at least as strong as any ordering requested here, so the
// orderings never weaken an operation. They are validated (a Release load
// panics with ErrInvalidOrdering) and they document which happens-before
// edge each call site relies on.
//
// CompareAndSwapWeak may fail spuriously by contract. Callers must treat a
// failure exactly like a value mismatch: reload and retry. The current
// implementation is backed by a strong CAS.
//
// Neither CAS form writes the observed value back into the expected
// argument on failure. Refreshing the expected value is left to the retry
// loop, which reloads with the ordering it needs.
//
// TaggedRef packs a 32-bit node handle with a 32-bit version counter.
// TaggedWord increments the counter on every successful CAS, which is the
// primary ABA defense for the lock-free containers.
package atomicx
