// File: rcu/rcu.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package rcu implements simplified read-copy-update over a single pointer.
//
// Readers take one acquire load and get an immutable version. Writers copy
// the current version, modify the copy, publish it and retire the old one
// after a fixed grace period. The grace period is a wait, not a proof: a
// reader that keeps a version longer than the grace period may observe it
// being recycled. Callers must not hold the result of Read across blocking
// operations.

package rcu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
	"github.com/momentics/hioload-lockfree/pool"
)

// Cell holds the current version of a T.
type Cell[T any] struct {
	cur     atomicx.Pointer[T]
	mu      sync.Mutex
	cfg     Config[T]
	version atomic.Uint64
	retired atomic.Uint64
}

// New creates a cell whose first version is a copy of initial.
func New[T any](initial T, opts ...Option[T]) *Cell[T] {
	cfg := DefaultConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.GracePeriod < 0 {
		panic(fmt.Errorf("%w: negative grace period %v", api.ErrInvalidArgument, cfg.GracePeriod))
	}
	c := &Cell[T]{cfg: cfg}
	first := c.alloc()
	*first = initial
	c.cur.Store(first, atomicx.Release)
	return c
}

// Read returns the current version. The result must be treated as
// read-only.
func (c *Cell[T]) Read() *T {
	return c.cur.Load(atomicx.Acquire)
}

// Update copies the current version, applies fn to the copy and publishes
// it. Writers are serialised. Update returns after the old version has been
// retired.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	old := c.cur.Load(atomicx.Acquire)
	next := c.clone(old)
	fn(next)
	c.cur.Store(next, atomicx.Release)
	c.version.Add(1)
	c.mu.Unlock()

	c.retire(old)
}

// Swap publishes a version built by the caller and retires the previous
// one. next must not be modified afterwards.
func (c *Cell[T]) Swap(next *T) {
	if next == nil {
		panic(fmt.Errorf("%w: nil rcu version", api.ErrInvalidArgument))
	}
	c.mu.Lock()
	old := c.cur.Swap(next, atomicx.AcqRel)
	c.version.Add(1)
	c.mu.Unlock()

	c.retire(old)
}

// Synchronize waits one grace period.
func (c *Cell[T]) Synchronize() {
	if c.cfg.GracePeriod > 0 {
		time.Sleep(c.cfg.GracePeriod)
	}
}

// Version counts publications since New.
func (c *Cell[T]) Version() uint64 { return c.version.Load() }

// Retired counts versions handed to the retire hook or pool.
func (c *Cell[T]) Retired() uint64 { return c.retired.Load() }

// GracePeriod returns the configured wait.
func (c *Cell[T]) GracePeriod() time.Duration { return c.cfg.GracePeriod }

func (c *Cell[T]) retire(old *T) {
	c.Synchronize()
	if c.cfg.Retire != nil {
		c.cfg.Retire(old)
	}
	if c.cfg.Pool != nil {
		c.cfg.Pool.Put(old)
	}
	c.retired.Add(1)
}

func (c *Cell[T]) alloc() *T {
	if c.cfg.Pool != nil {
		return c.cfg.Pool.Get()
	}
	return new(T)
}

func (c *Cell[T]) clone(old *T) *T {
	if c.cfg.Clone != nil {
		return c.cfg.Clone(old)
	}
	next := c.alloc()
	*next = *old
	return next
}

// Config holds cell parameters.
type Config[T any] struct {
	GracePeriod time.Duration
	// Clone deep-copies a version. The default is a shallow struct copy.
	Clone func(*T) *T
	// Retire runs once per replaced version after its grace period.
	Retire func(*T)
	// Pool supplies new versions and receives retired ones.
	Pool *pool.SyncPool[*T]
}

// DefaultConfig returns a 1ms grace period with shallow copies.
func DefaultConfig[T any]() Config[T] {
	return Config[T]{GracePeriod: time.Millisecond}
}

// Option customizes a Cell.
type Option[T any] func(*Config[T])

// WithGracePeriod sets the wait between publish and retire.
func WithGracePeriod[T any](d time.Duration) Option[T] {
	return func(c *Config[T]) { c.GracePeriod = d }
}

// WithClone replaces the default shallow copy.
func WithClone[T any](fn func(*T) *T) Option[T] {
	return func(c *Config[T]) { c.Clone = fn }
}

// WithRetire installs the deleter for replaced versions.
func WithRetire[T any](fn func(*T)) Option[T] {
	return func(c *Config[T]) { c.Retire = fn }
}

// WithPool recycles versions through p.
func WithPool[T any](p *pool.SyncPool[*T]) Option[T] {
	return func(c *Config[T]) { c.Pool = p }
}
