// File: core/atomicx/ordering.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Memory ordering vocabulary and its legality rules.

package atomicx

import (
	"errors"
	"fmt"
)

// ErrInvalidOrdering is the panic value for an ordering that is illegal for
// the requested operation (for example a Release load).
var ErrInvalidOrdering = errors.New("invalid memory ordering")

// Ordering constrains the visibility of other memory accesses relative to an
// atomic operation. Atomicity itself never depends on the ordering.
type Ordering uint8

const (
	Relaxed Ordering = iota
	Acquire
	Release
	AcqRel
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case Relaxed:
		return "relaxed"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcqRel:
		return "acq_rel"
	case SeqCst:
		return "seq_cst"
	}
	return fmt.Sprintf("ordering(%d)", uint8(o))
}

func (o Ordering) known() bool { return o <= SeqCst }

// ValidLoad reports whether o may order a load.
func (o Ordering) ValidLoad() bool {
	return o.known() && o != Release && o != AcqRel
}

// ValidStore reports whether o may order a store.
func (o Ordering) ValidStore() bool {
	return o.known() && o != Acquire && o != AcqRel
}

// ValidFailure reports whether o may order the load performed by a failed
// compare-and-swap.
func (o Ordering) ValidFailure() bool {
	return o.ValidLoad()
}

func checkLoad(o Ordering) {
	if !o.ValidLoad() {
		panic(fmt.Errorf("%w: %s load", ErrInvalidOrdering, o))
	}
}

func checkStore(o Ordering) {
	if !o.ValidStore() {
		panic(fmt.Errorf("%w: %s store", ErrInvalidOrdering, o))
	}
}

func checkRMW(o Ordering) {
	if !o.known() {
		panic(fmt.Errorf("%w: %s read-modify-write", ErrInvalidOrdering, o))
	}
}

func checkCAS(success, failure Ordering) {
	checkRMW(success)
	if !failure.ValidFailure() {
		panic(fmt.Errorf("%w: %s compare-and-swap failure", ErrInvalidOrdering, failure))
	}
}
