// File: api/reclaim.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Safe-memory-reclamation contract shared by the hazard-pointer and
// epoch-based schemes. Data structures depend only on this file.

package api

import "github.com/momentics/hioload-lockfree/core/atomicx"

// Participant is one goroutine's registration with a reclamation scheme.
// A participant must never be used by two goroutines at the same time.
type Participant interface {
	// Enter begins a critical section. Shared nodes may only be dereferenced
	// between Enter and Leave.
	Enter()

	// Leave ends the critical section started by Enter.
	Leave()

	// Protect loads src and guarantees the referenced node stays allocated
	// until the slot is cleared or reused. The returned value is validated
	// against src after protection was announced.
	Protect(slot int, src *atomicx.TaggedWord) atomicx.TaggedRef

	// Clear drops the protection held in slot.
	Clear(slot int)

	// Retire hands a logically removed node to the scheme. free is invoked
	// exactly once, from a scan or an epoch advance, when no participant can
	// still reach ref.
	Retire(ref uint32, free func(uint32))

	// Unregister releases the participant's registration. Pending retirements
	// are adopted by the scheme.
	Unregister()
}

// Reclaimer is a safe-memory-reclamation scheme.
type Reclaimer interface {
	// Register creates a participant, failing with ErrSlotsExhausted when the
	// fixed registration table is full.
	Register() (Participant, error)

	// Pending reports retired references not yet freed.
	Pending() int

	// Name identifies the scheme for diagnostics.
	Name() string
}
