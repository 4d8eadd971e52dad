// File: reclaim/epoch/domain.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Epoch-based reclamation with a global epoch counter and three retirement
// buckets per participant.

package epoch

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

const buckets = 3

// Stats is a snapshot of domain counters.
type Stats struct {
	Epoch        uint64
	Participants int
	InUse        int
	Retired      int64
	Freed        int64
	Advances     int64
	// Blocked is true when the last advancement attempt found an active
	// participant pinned to an older epoch.
	Blocked bool
}

type retiredNode struct {
	ref  uint32
	free func(uint32)
}

// Domain is an epoch reclamation scheme. The zero value is not usable; use
// NewDomain.
type Domain struct {
	cfg          Config
	global       atomicx.Uint64
	advancing    atomic.Bool
	participants []Participant

	inUse    atomic.Int32
	retired  atomic.Int64
	freed    atomic.Int64
	advances atomic.Int64
	blocked  atomic.Bool
}

var _ api.Reclaimer = (*Domain)(nil)

// NewDomain creates an epoch domain.
func NewDomain(opts ...Option) *Domain {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxParticipants < 1 || cfg.AdvanceEvery < 1 {
		panic(fmt.Errorf("%w: epoch domain %+v", api.ErrInvalidArgument, cfg))
	}
	d := &Domain{
		cfg:          cfg,
		participants: make([]Participant, cfg.MaxParticipants),
	}
	for i := range d.participants {
		p := &d.participants[i]
		p.domain = d
		p.id = i
		for b := range p.buckets {
			p.buckets[b] = queue.New()
		}
	}
	return d
}

// Acquire claims a participant slot.
func (d *Domain) Acquire() (*Participant, error) {
	for i := range d.participants {
		p := &d.participants[i]
		if p.owned.Load() {
			continue
		}
		if p.owned.CompareAndSwap(false, true) {
			p.depth = 0
			p.sinceAdvance = 0
			d.inUse.Add(1)
			return p, nil
		}
	}
	log.Printf("[epoch] all %d participant slots in use", len(d.participants))
	return nil, api.Wrap(api.ErrCodeResourceExhausted, api.ErrSlotsExhausted, "epoch domain").
		WithContext("participants", len(d.participants))
}

// Register implements api.Reclaimer.
func (d *Domain) Register() (api.Participant, error) {
	p, err := d.Acquire()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements api.Reclaimer.
func (d *Domain) Name() string { return "epoch" }

// Epoch returns the global epoch.
func (d *Domain) Epoch() uint64 { return d.global.Load(atomicx.Acquire) }

// Pending reports retired references not yet freed.
func (d *Domain) Pending() int {
	return int(d.retired.Load() - d.freed.Load())
}

// Stats returns a snapshot of the domain counters.
func (d *Domain) Stats() Stats {
	return Stats{
		Epoch:        d.Epoch(),
		Participants: len(d.participants),
		InUse:        int(d.inUse.Load()),
		Retired:      d.retired.Load(),
		Freed:        d.freed.Load(),
		Advances:     d.advances.Load(),
		Blocked:      d.blocked.Load(),
	}
}

// TryAdvance moves the global epoch forward by one if every active
// participant has observed it, then frees everything retired two epochs
// back. Only one goroutine advances at a time; concurrent callers return
// false immediately.
func (d *Domain) TryAdvance() bool {
	if !d.advancing.CompareAndSwap(false, true) {
		return false
	}
	defer d.advancing.Store(false)

	g := d.global.Load(atomicx.Acquire)
	for i := range d.participants {
		p := &d.participants[i]
		if p.active.Load() && p.local.Load(atomicx.Acquire) != g {
			d.blocked.Store(true)
			return false
		}
	}
	if !d.global.CompareAndSwap(g, g+1, atomicx.AcqRel, atomicx.Acquire) {
		return false
	}
	d.blocked.Store(false)
	d.advances.Add(1)

	// (g+1)-2 modulo 3: nothing in this bucket can still be referenced.
	stale := (g + 2) % buckets
	for i := range d.participants {
		d.drain(d.participants[i].buckets[stale])
	}
	return true
}

// Flush attempts enough advancements to free everything retired so far and
// reports whether nothing is pending afterwards. It only succeeds when no
// participant is inside a critical section.
func (d *Domain) Flush() bool {
	for i := 0; i < buckets && d.Pending() > 0; i++ {
		if !d.TryAdvance() {
			break
		}
	}
	return d.Pending() == 0
}

func (d *Domain) drain(q *queue.Queue) {
	n := 0
	for q.Length() > 0 {
		it := q.Remove().(retiredNode)
		it.free(it.ref)
		n++
	}
	if n > 0 {
		d.freed.Add(int64(n))
	}
}

// Participant is one goroutine's epoch registration.
type Participant struct {
	_       cpu.CacheLinePad
	owned   atomic.Bool
	active  atomic.Bool
	local   atomicx.Uint64
	buckets [buckets]*queue.Queue

	// owner-only
	depth        int
	sinceAdvance int
	domain       *Domain
	id           int
	_            cpu.CacheLinePad
}

var _ api.Participant = (*Participant)(nil)

// ID is the participant's index in the domain table.
func (p *Participant) ID() int { return p.id }

// Enter begins a critical section. Nested calls only count depth; the
// outermost one stamps the local epoch.
func (p *Participant) Enter() {
	p.depth++
	if p.depth > 1 {
		return
	}
	p.local.Store(p.domain.global.Load(atomicx.Acquire), atomicx.Release)
	p.active.Store(true)
}

// Leave ends the critical section opened by the matching Enter.
func (p *Participant) Leave() {
	if p.depth == 0 {
		panic(fmt.Errorf("%w: epoch participant %d left without entering", api.ErrReclamationDefect, p.id))
	}
	p.depth--
	if p.depth == 0 {
		p.active.Store(false)
	}
}

// Active reports whether the participant is inside a critical section.
func (p *Participant) Active() bool { return p.depth > 0 }

// Protect reads src. Inside a critical section the epoch already keeps
// every reachable node alive.
func (p *Participant) Protect(_ int, src *atomicx.TaggedWord) atomicx.TaggedRef {
	return src.Load(atomicx.Acquire)
}

// Clear is a no-op for epochs.
func (p *Participant) Clear(int) {}

// Retire files ref under the current global epoch and periodically tries
// to advance. Retiring outside a critical section enters one implicitly.
func (p *Participant) Retire(ref uint32, free func(uint32)) {
	d := p.domain
	p.Enter()
	g := d.global.Load(atomicx.Acquire)
	p.buckets[g%buckets].Add(retiredNode{ref: ref, free: free})
	d.retired.Add(1)
	p.Leave()

	p.sinceAdvance++
	if p.sinceAdvance >= d.cfg.AdvanceEvery {
		p.sinceAdvance = 0
		d.TryAdvance()
	}
}

// Unregister leaves any open critical section and frees the slot. Retired
// references stay in the slot's buckets and are freed by later advances.
func (p *Participant) Unregister() {
	if p.depth > 0 {
		p.depth = 0
		p.active.Store(false)
	}
	p.domain.inUse.Add(-1)
	p.owned.Store(false)
}
