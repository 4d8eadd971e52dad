// File: core/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded exponential spin backoff for wait loops (seqlock readers, spin
// locks). CAS retry loops of the lock-free containers do not use it.

package concurrency

import "runtime"

const (
	backoffMinSpins = 1
	backoffMaxSpins = 1 << 10
	// after this many rounds the waiter yields its P every time
	backoffYieldAfter = 10
)

// Backoff is a per-waiter spin state. The zero value is ready to use.
type Backoff struct {
	spins  int
	rounds int
	sink   uint64
}

// Wait spins for the current budget and doubles it, yielding to the
// scheduler once spinning stops paying off.
func (b *Backoff) Wait() {
	if b.spins == 0 {
		b.spins = backoffMinSpins
	}
	if b.rounds >= backoffYieldAfter {
		runtime.Gosched()
		return
	}
	for i := 0; i < b.spins; i++ {
		b.sink += uint64(i)
	}
	if b.spins < backoffMaxSpins {
		b.spins <<= 1
	}
	b.rounds++
}

// Reset restores the initial budget.
func (b *Backoff) Reset() {
	b.spins = backoffMinSpins
	b.rounds = 0
}
