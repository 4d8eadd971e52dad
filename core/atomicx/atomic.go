// File: core/atomicx/atomic.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ordered wrappers over sync/atomic.

package atomicx

import "sync/atomic"

// Uint64 is an atomic uint64 with ordered operations.
// The zero value is ready to use.
type Uint64 struct {
	_ noCopy
	v atomic.Uint64
}

func (x *Uint64) Load(o Ordering) uint64 {
	checkLoad(o)
	return x.v.Load()
}

func (x *Uint64) Store(val uint64, o Ordering) {
	checkStore(o)
	x.v.Store(val)
}

func (x *Uint64) Swap(val uint64, o Ordering) (old uint64) {
	checkRMW(o)
	return x.v.Swap(val)
}

func (x *Uint64) Add(delta uint64, o Ordering) (new uint64) {
	checkRMW(o)
	return x.v.Add(delta)
}

// CompareAndSwap never fails spuriously.
func (x *Uint64) CompareAndSwap(old, new uint64, success, failure Ordering) bool {
	checkCAS(success, failure)
	return x.v.CompareAndSwap(old, new)
}

// CompareAndSwapWeak may fail even when the value equals old.
func (x *Uint64) CompareAndSwapWeak(old, new uint64, success, failure Ordering) bool {
	return x.CompareAndSwap(old, new, success, failure)
}

// Uint32 is an atomic uint32 with ordered operations.
type Uint32 struct {
	_ noCopy
	v atomic.Uint32
}

func (x *Uint32) Load(o Ordering) uint32 {
	checkLoad(o)
	return x.v.Load()
}

func (x *Uint32) Store(val uint32, o Ordering) {
	checkStore(o)
	x.v.Store(val)
}

func (x *Uint32) Swap(val uint32, o Ordering) (old uint32) {
	checkRMW(o)
	return x.v.Swap(val)
}

func (x *Uint32) Add(delta uint32, o Ordering) (new uint32) {
	checkRMW(o)
	return x.v.Add(delta)
}

func (x *Uint32) CompareAndSwap(old, new uint32, success, failure Ordering) bool {
	checkCAS(success, failure)
	return x.v.CompareAndSwap(old, new)
}

func (x *Uint32) CompareAndSwapWeak(old, new uint32, success, failure Ordering) bool {
	return x.CompareAndSwap(old, new, success, failure)
}

// Pointer is an atomic *T with ordered operations.
type Pointer[T any] struct {
	_ noCopy
	v atomic.Pointer[T]
}

func (x *Pointer[T]) Load(o Ordering) *T {
	checkLoad(o)
	return x.v.Load()
}

func (x *Pointer[T]) Store(val *T, o Ordering) {
	checkStore(o)
	x.v.Store(val)
}

func (x *Pointer[T]) Swap(val *T, o Ordering) (old *T) {
	checkRMW(o)
	return x.v.Swap(val)
}

func (x *Pointer[T]) CompareAndSwap(old, new *T, success, failure Ordering) bool {
	checkCAS(success, failure)
	return x.v.CompareAndSwap(old, new)
}

func (x *Pointer[T]) CompareAndSwapWeak(old, new *T, success, failure Ordering) bool {
	return x.CompareAndSwap(old, new, success, failure)
}

// noCopy trips go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
