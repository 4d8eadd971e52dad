// File: seqlock/value.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package seqlock

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-lockfree/api"
)

// Codec flattens T into a fixed number of 64-bit words and back. Decode
// must not retain src.
type Codec[T any] struct {
	Words  int
	Encode func(v T, dst []uint64)
	Decode func(src []uint64) T
}

// Value is a T guarded by a SeqLock. The payload is stored word by word in
// atomics, so a torn copy is detected by the sequence check instead of being
// a data race.
type Value[T any] struct {
	lock    SeqLock
	codec   Codec[T]
	words   []atomic.Uint64
	scratch []uint64 // writer-only, under lock
	retries atomic.Uint64
}

// NewValue creates a Value holding initial.
func NewValue[T any](codec Codec[T], initial T) *Value[T] {
	if codec.Words < 1 || codec.Encode == nil || codec.Decode == nil {
		panic(fmt.Errorf("%w: seqlock codec with %d words", api.ErrInvalidArgument, codec.Words))
	}
	v := &Value[T]{
		codec:   codec,
		words:   make([]atomic.Uint64, codec.Words),
		scratch: make([]uint64, codec.Words),
	}
	v.Store(initial)
	return v
}

// Load returns a consistent copy, retrying while writes overlap the read.
func (v *Value[T]) Load() T {
	var (
		small [8]uint64
		buf   []uint64
	)
	if len(v.words) <= len(small) {
		buf = small[:len(v.words)]
	} else {
		buf = make([]uint64, len(v.words))
	}
	for {
		s := v.lock.ReadBegin()
		for i := range v.words {
			buf[i] = v.words[i].Load()
		}
		if v.lock.ReadValidate(s) {
			return v.codec.Decode(buf)
		}
		v.retries.Add(1)
	}
}

// Store publishes x. Writers are serialised by the lock.
func (v *Value[T]) Store(x T) {
	v.lock.WriteLock()
	v.codec.Encode(x, v.scratch)
	for i, w := range v.scratch {
		v.words[i].Store(w)
	}
	v.lock.WriteUnlock()
}

// Update applies fn to the current value under the write lock.
func (v *Value[T]) Update(fn func(T) T) {
	v.lock.WriteLock()
	for i := range v.words {
		v.scratch[i] = v.words[i].Load()
	}
	x := fn(v.codec.Decode(v.scratch))
	v.codec.Encode(x, v.scratch)
	for i, w := range v.scratch {
		v.words[i].Store(w)
	}
	v.lock.WriteUnlock()
}

// Retries counts reads that had to be repeated.
func (v *Value[T]) Retries() uint64 { return v.retries.Load() }

// Sequence exposes the underlying lock sequence.
func (v *Value[T]) Sequence() uint64 { return v.lock.Sequence() }
