// File: reclaim/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package reclaim holds helpers shared by the reclamation schemes.
//
// Pool recycles participants across short-lived goroutines so that callers
// that cannot keep a long-lived registration (request handlers, metric
// updates) do not exhaust the fixed registration table.

package reclaim

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/concurrency"
)

// Pool keeps idle participants of one Reclaimer in a lock-free ring.
type Pool struct {
	r    api.Reclaimer
	idle *concurrency.MPMCRing[api.Participant]

	owned      atomic.Int64 // registered by the pool and not yet unregistered
	registered atomic.Int64
	reused     atomic.Int64
	dropped    atomic.Int64
	waits      atomic.Int64
}

// PoolStats reports pool activity.
type PoolStats struct {
	Idle       int
	Registered int64 // participants created through Register
	Reused     int64 // Get calls served from the idle ring
	Dropped    int64 // Put calls that unregistered because the ring was full
	Owned      int64 // participants currently registered through the pool
	Waits      int64 // Acquire calls that had to wait for a Put
}

// NewPool creates a pool holding at most size idle participants.
func NewPool(r api.Reclaimer, size int) *Pool {
	if size < 1 {
		panic(fmt.Errorf("%w: participant pool size %d", api.ErrInvalidArgument, size))
	}
	return &Pool{
		r:    r,
		idle: concurrency.NewMPMCRing[api.Participant](uint64(size)),
	}
}

// Reclaimer returns the scheme the pool registers with.
func (p *Pool) Reclaimer() api.Reclaimer { return p.r }

// Get returns an idle participant or registers a new one.
func (p *Pool) Get() (api.Participant, error) {
	if part, ok := p.idle.TryDequeue(); ok {
		p.reused.Add(1)
		return part, nil
	}
	part, err := p.r.Register()
	if err != nil {
		return nil, fmt.Errorf("reclaim pool (%s): %w", p.r.Name(), err)
	}
	p.registered.Add(1)
	p.owned.Add(1)
	return part, nil
}

// Reserve registers up to n participants and parks them, so the pool keeps
// serving callers once other users fill the registration table. It stops
// early when the idle ring is full.
func (p *Pool) Reserve(n int) error {
	for i := 0; i < n; i++ {
		part, err := p.r.Register()
		if err != nil {
			return fmt.Errorf("reclaim pool (%s): reserved %d of %d: %w", p.r.Name(), i, n, err)
		}
		p.registered.Add(1)
		p.owned.Add(1)
		if !p.idle.TryEnqueue(part) {
			p.owned.Add(-1)
			part.Unregister()
			return nil
		}
	}
	return nil
}

// Acquire is Get that waits instead of failing when the table is full but
// the pool still owns participants that will come back through Put. It
// gives up when ctx is done.
func (p *Pool) Acquire(ctx context.Context) (api.Participant, error) {
	part, err := p.Get()
	if err == nil || api.CodeOf(err) != api.ErrCodeResourceExhausted || p.owned.Load() == 0 {
		return part, err
	}
	p.waits.Add(1)
	var b concurrency.Backoff
	for {
		if part, ok := p.idle.TryDequeue(); ok {
			p.reused.Add(1)
			return part, nil
		}
		if p.owned.Load() == 0 {
			return nil, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("%w (%v)", err, cerr)
		}
		b.Wait()
	}
}

// Put parks part for reuse. The caller must have left every critical
// section and must not touch part afterwards.
func (p *Pool) Put(part api.Participant) {
	if part == nil {
		return
	}
	if !p.idle.TryEnqueue(part) {
		p.dropped.Add(1)
		p.owned.Add(-1)
		part.Unregister()
	}
}

// Do runs fn with a pooled participant inside a critical section.
func (p *Pool) Do(fn func(api.Participant) error) error {
	part, err := p.Get()
	if err != nil {
		return err
	}
	part.Enter()
	defer func() {
		part.Leave()
		p.Put(part)
	}()
	return fn(part)
}

// DoContext is Do on top of Acquire.
func (p *Pool) DoContext(ctx context.Context, fn func(api.Participant) error) error {
	part, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	part.Enter()
	defer func() {
		part.Leave()
		p.Put(part)
	}()
	return fn(part)
}

// Close unregisters every idle participant.
func (p *Pool) Close() {
	for {
		part, ok := p.idle.TryDequeue()
		if !ok {
			return
		}
		p.owned.Add(-1)
		part.Unregister()
	}
}

// Stats returns pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Idle:       p.idle.Len(),
		Registered: p.registered.Load(),
		Reused:     p.reused.Load(),
		Dropped:    p.dropped.Load(),
		Owned:      p.owned.Load(),
		Waits:      p.waits.Load(),
	}
}
