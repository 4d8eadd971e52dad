// File: core/arena/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Node arena addressed by stable uint32 handles. Nodes are never returned to
// the Go heap; a handle stays dereferenceable for the lifetime of the arena,
// which is what lets hazard pointers and epochs govern reuse explicitly.

package arena

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

const (
	segmentShift = 12
	segmentSize  = 1 << segmentShift
	segmentMask  = segmentSize - 1

	// MaxCapacity bounds handles to 31 bits.
	MaxCapacity = 1 << 31
)

// Node lifecycle states.
const (
	StateFree uint32 = iota
	StateLive
	StateRetired
)

// Canary words written into every node header.
const (
	CanaryLive  uint64 = 0x0DDC0FFEE0DDF00D
	CanaryFreed uint64 = 0xDEADDEADDEADDEAD
)

// Node is one arena slot. Next is the link word used by the containers.
type Node[P any] struct {
	Next  atomicx.TaggedWord
	Value P

	state    atomic.Uint32
	canary   atomic.Uint64
	freeNext atomic.Uint32
}

// State returns the lifecycle state of the node.
func (n *Node[P]) State() uint32 { return n.state.Load() }

// Canary returns the canary word of the node.
func (n *Node[P]) Canary() uint64 { return n.canary.Load() }

type segment[P any] [segmentSize]Node[P]

// Stats is a point-in-time view of arena occupancy.
type Stats struct {
	Capacity  int
	Allocated int // handles ever carved out of segments
	Live      int
	Retired   int
	Free      int // handles parked on the free list
}

// Arena is a lock-free pool of Node[P].
type Arena[P any] struct {
	capacity uint32
	segments []atomic.Pointer[segment[P]]
	bump     atomic.Uint32
	free     atomicx.TaggedWord

	live    atomic.Int64
	retired atomic.Int64
	parked  atomic.Int64
}

// New creates an arena. Invalid capacity panics with api.ErrInvalidArgument.
func New[P any](opts ...Option) *Arena[P] {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Capacity < 1 || cfg.Capacity > MaxCapacity {
		panic(fmt.Errorf("%w: arena capacity %d", api.ErrInvalidArgument, cfg.Capacity))
	}
	// Handle 0 is nil, so the last valid handle equals the capacity.
	nseg := (cfg.Capacity >> segmentShift) + 1
	return &Arena[P]{
		capacity: uint32(cfg.Capacity),
		segments: make([]atomic.Pointer[segment[P]], nseg),
	}
}

// Cap returns the maximum number of simultaneously allocated nodes.
func (a *Arena[P]) Cap() int { return int(a.capacity) }

// Node dereferences a handle. Handle 0 and handles never carved out panic.
func (a *Arena[P]) Node(h uint32) *Node[P] {
	if h == 0 {
		panic(fmt.Errorf("%w: nil handle dereferenced", api.ErrReclamationDefect))
	}
	seg := a.segments[h>>segmentShift].Load()
	if seg == nil {
		panic(fmt.Errorf("%w: handle %d never allocated", api.ErrReclamationDefect, h))
	}
	return &seg[h&segmentMask]
}

// Alloc returns a Live node holding v. The node's Next word is reset to nil
// with its tag advanced.
func (a *Arena[P]) Alloc(v P) (uint32, error) {
	h := a.popFree()
	if h == 0 {
		var err error
		if h, err = a.carve(); err != nil {
			return 0, err
		}
	}
	n := a.Node(h)
	if !n.state.CompareAndSwap(StateFree, StateLive) {
		panic(fmt.Errorf("%w: alloc of handle %d in state %d", api.ErrReclamationDefect, h, n.state.Load()))
	}
	n.Value = v
	n.Next.Store(atomicx.MakeTagged(0, n.Next.Load(atomicx.Relaxed).Tag()+1), atomicx.Relaxed)
	n.canary.Store(CanaryLive)
	a.live.Add(1)
	return h, nil
}

// Retire moves a node from Live to Retired. Retiring twice is a defect.
func (a *Arena[P]) Retire(h uint32) {
	n := a.Node(h)
	if !n.state.CompareAndSwap(StateLive, StateRetired) {
		panic(fmt.Errorf("%w: retire of handle %d in state %d", api.ErrReclamationDefect, h, n.state.Load()))
	}
	a.live.Add(-1)
	a.retired.Add(1)
}

// Free is the deleter handed to a reclamation scheme: Retired -> Free.
func (a *Arena[P]) Free(h uint32) {
	n := a.Node(h)
	if !n.state.CompareAndSwap(StateRetired, StateFree) {
		panic(fmt.Errorf("%w: free of handle %d in state %d", api.ErrReclamationDefect, h, n.state.Load()))
	}
	a.retired.Add(-1)
	a.release(h, n)
}

// Discard returns a node that was never published: Live -> Free.
func (a *Arena[P]) Discard(h uint32) {
	n := a.Node(h)
	if !n.state.CompareAndSwap(StateLive, StateFree) {
		panic(fmt.Errorf("%w: discard of handle %d in state %d", api.ErrReclamationDefect, h, n.state.Load()))
	}
	a.live.Add(-1)
	a.release(h, n)
}

// State returns the lifecycle state of h.
func (a *Arena[P]) State(h uint32) uint32 { return a.Node(h).State() }

// Canary returns the canary word of h.
func (a *Arena[P]) Canary(h uint32) uint64 { return a.Node(h).Canary() }

// Stats reports occupancy counters.
func (a *Arena[P]) Stats() Stats {
	carved := a.bump.Load()
	if carved > a.capacity {
		carved = a.capacity
	}
	return Stats{
		Capacity:  int(a.capacity),
		Allocated: int(carved),
		Live:      int(a.live.Load()),
		Retired:   int(a.retired.Load()),
		Free:      int(a.parked.Load()),
	}
}

func (a *Arena[P]) release(h uint32, n *Node[P]) {
	var zero P
	n.canary.Store(CanaryFreed)
	n.Value = zero
	a.pushFree(h, n)
}

// carve takes a never-used handle, publishing its segment on first touch.
func (a *Arena[P]) carve() (uint32, error) {
	h := a.bump.Add(1)
	if h > a.capacity || h == 0 {
		a.bump.Add(^uint32(0))
		return 0, api.Wrap(api.ErrCodeOutOfMemory, api.ErrOutOfMemory, "arena").
			WithContext("capacity", a.capacity)
	}
	slot := &a.segments[h>>segmentShift]
	if slot.Load() == nil {
		// Losers of the race drop their segment.
		slot.CompareAndSwap(nil, new(segment[P]))
	}
	return h, nil
}

// Free list: Treiber stack over freeNext, ABA-safe through the tagged head.

func (a *Arena[P]) pushFree(h uint32, n *Node[P]) {
	for {
		old := a.free.Load(atomicx.Acquire)
		n.freeNext.Store(old.Index())
		if a.free.CompareAndSwapWeak(old, h, atomicx.Release, atomicx.Relaxed) {
			a.parked.Add(1)
			return
		}
	}
}

func (a *Arena[P]) popFree() uint32 {
	for {
		old := a.free.Load(atomicx.Acquire)
		if old.IsNil() {
			return 0
		}
		next := a.Node(old.Index()).freeNext.Load()
		if a.free.CompareAndSwapWeak(old, next, atomicx.Acquire, atomicx.Acquire) {
			a.parked.Add(-1)
			return old.Index()
		}
	}
}
