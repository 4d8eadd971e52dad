// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed object pool used to recycle retired RCU versions.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-lockfree/api"
)

// Stats counts pool traffic.
type Stats struct {
	Gets    int64
	Puts    int64
	Created int64 // Get calls that fell through to the creator
}

// SyncPool wraps sync.Pool for generic usage.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T)

	gets    atomic.Int64
	puts    atomic.Int64
	created atomic.Int64
}

var _ api.ObjectPool[int] = (*SyncPool[int])(nil)

// NewSyncPool creates a new SyncPool with a creator function.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.pool.New = func() any {
		sp.created.Add(1)
		return creator()
	}
	return sp
}

// WithReset installs a hook that scrubs objects as they are returned.
func (sp *SyncPool[T]) WithReset(fn func(T)) *SyncPool[T] {
	sp.reset = fn
	return sp
}

// Get returns a pooled or freshly created object.
func (sp *SyncPool[T]) Get() T {
	sp.gets.Add(1)
	return sp.pool.Get().(T)
}

// Put returns obj to the pool. The caller must not use obj afterwards.
func (sp *SyncPool[T]) Put(obj T) {
	if sp.reset != nil {
		sp.reset(obj)
	}
	sp.puts.Add(1)
	sp.pool.Put(obj)
}

// Stats returns pool counters.
func (sp *SyncPool[T]) Stats() Stats {
	return Stats{
		Gets:    sp.gets.Load(),
		Puts:    sp.puts.Load(),
		Created: sp.created.Load(),
	}
}
