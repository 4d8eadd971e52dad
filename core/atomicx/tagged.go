// File: core/atomicx/tagged.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tagged references: handle + version counter in one machine word.

package atomicx

import (
	"fmt"
	"sync/atomic"
)

// TaggedRef is tag<<32 | index. Index 0 is the nil reference.
type TaggedRef uint64

// MakeTagged packs index and tag.
func MakeTagged(index, tag uint32) TaggedRef {
	return TaggedRef(uint64(tag)<<32 | uint64(index))
}

// Index returns the referenced handle.
func (r TaggedRef) Index() uint32 { return uint32(r) }

// Tag returns the version counter.
func (r TaggedRef) Tag() uint32 { return uint32(r >> 32) }

// IsNil reports whether the reference points nowhere, whatever its tag.
func (r TaggedRef) IsNil() bool { return r.Index() == 0 }

func (r TaggedRef) String() string {
	return fmt.Sprintf("%d@%d", r.Index(), r.Tag())
}

// TaggedWord is an atomic slot holding a TaggedRef. A successful CAS always
// installs the new index with the previous tag plus one, so two writes of
// the same handle remain distinguishable.
type TaggedWord struct {
	_ noCopy
	v atomic.Uint64
}

func (w *TaggedWord) Load(o Ordering) TaggedRef {
	checkLoad(o)
	return TaggedRef(w.v.Load())
}

// Store overwrites the slot. It is reserved for initialisation and for slots
// owned exclusively by the caller, such as a node that is not yet published.
func (w *TaggedWord) Store(r TaggedRef, o Ordering) {
	checkStore(o)
	w.v.Store(uint64(r))
}

// CompareAndSwap installs index with old.Tag()+1 if the slot still holds old.
func (w *TaggedWord) CompareAndSwap(old TaggedRef, index uint32, success, failure Ordering) bool {
	checkCAS(success, failure)
	return w.v.CompareAndSwap(uint64(old), uint64(MakeTagged(index, old.Tag()+1)))
}

// CompareAndSwapWeak is CompareAndSwap that may fail spuriously.
func (w *TaggedWord) CompareAndSwapWeak(old TaggedRef, index uint32, success, failure Ordering) bool {
	return w.CompareAndSwap(old, index, success, failure)
}

// Swap installs index with the current tag plus one and returns the previous value.
func (w *TaggedWord) Swap(index uint32, o Ordering) TaggedRef {
	checkRMW(o)
	for {
		old := TaggedRef(w.v.Load())
		if w.v.CompareAndSwap(uint64(old), uint64(MakeTagged(index, old.Tag()+1))) {
			return old
		}
	}
}
