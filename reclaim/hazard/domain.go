// File: reclaim/hazard/domain.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hazard-pointer domain: a fixed table of per-participant records, each with
// a small set of hazard slots and a private retired list.

package hazard

import (
	"fmt"
	"log"
	"sync/atomic"
	"unsafe"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
)

// Stats is a snapshot of domain counters.
type Stats struct {
	Records  int
	InUse    int
	Retired  int64
	Freed    int64
	Scans    int64
	Orphaned int64
}

// hazardPad is one cache line of hazard slots. It separates the hazard
// blocks of neighbouring records, which are scanned by every other record.
const hazardPad = int(unsafe.Sizeof(cpu.CacheLinePad{}) / unsafe.Sizeof(atomic.Uint32{}))

type retiredNode struct {
	ref  uint32
	free func(uint32)
}

// orphanBatch carries retirements left behind by a released record.
type orphanBatch struct {
	items []retiredNode
	next  *orphanBatch
}

// Domain owns the hazard table. The zero value is not usable; use NewDomain.
type Domain struct {
	cfg     Config
	records []Record
	orphans atomic.Pointer[orphanBatch]

	inUse    atomic.Int32
	retired  atomic.Int64
	freed    atomic.Int64
	scans    atomic.Int64
	orphaned atomic.Int64
}

var _ api.Reclaimer = (*Domain)(nil)

// NewDomain creates a hazard-pointer domain.
func NewDomain(opts ...Option) *Domain {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxRecords < 1 || cfg.HazardsPerRecord < 1 || cfg.ScanThreshold < 1 {
		panic(fmt.Errorf("%w: hazard domain %+v", api.ErrInvalidArgument, cfg))
	}
	d := &Domain{
		cfg:     cfg,
		records: make([]Record, cfg.MaxRecords),
	}
	n := cfg.HazardsPerRecord
	stride := n + hazardPad
	slots := make([]atomic.Uint32, hazardPad+cfg.MaxRecords*stride)
	for i := range d.records {
		r := &d.records[i]
		r.domain = d
		r.id = i
		off := hazardPad + i*stride
		r.hazards = slots[off : off+n : off+n]
	}
	return d
}

// AcquireSlot claims a free record. It fails with api.ErrSlotsExhausted when
// every record is owned.
func (d *Domain) AcquireSlot() (*Record, error) {
	for i := range d.records {
		r := &d.records[i]
		if r.active.Load() {
			continue
		}
		if r.active.CompareAndSwap(false, true) {
			r.retiredList = queue.New()
			d.inUse.Add(1)
			return r, nil
		}
	}
	log.Printf("[hazard] all %d records in use", len(d.records))
	return nil, api.Wrap(api.ErrCodeResourceExhausted, api.ErrSlotsExhausted, "hazard domain").
		WithContext("records", len(d.records))
}

// Register implements api.Reclaimer.
func (d *Domain) Register() (api.Participant, error) {
	r, err := d.AcquireSlot()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Name implements api.Reclaimer.
func (d *Domain) Name() string { return "hazard" }

// Pending reports retired references not yet freed.
func (d *Domain) Pending() int {
	return int(d.retired.Load() - d.freed.Load())
}

// Stats returns a snapshot of the domain counters.
func (d *Domain) Stats() Stats {
	return Stats{
		Records:  len(d.records),
		InUse:    int(d.inUse.Load()),
		Retired:  d.retired.Load(),
		Freed:    d.freed.Load(),
		Scans:    d.scans.Load(),
		Orphaned: d.orphaned.Load(),
	}
}

// Collect frees orphaned retirements that are no longer protected and
// returns how many were freed. Still-protected ones stay orphaned.
func (d *Domain) Collect() int {
	items := d.takeOrphans()
	if len(items) == 0 {
		return 0
	}
	kept, freed := d.reclaim(items, d.snapshot())
	d.pushOrphans(kept)
	return freed
}

// snapshot gathers every announced hazard in the table.
func (d *Domain) snapshot() map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(d.records)*d.cfg.HazardsPerRecord)
	for i := range d.records {
		for j := range d.records[i].hazards {
			if h := d.records[i].hazards[j].Load(); h != 0 {
				set[h] = struct{}{}
			}
		}
	}
	return set
}

// reclaim frees every item absent from the hazard set and returns the rest.
func (d *Domain) reclaim(items []retiredNode, hazards map[uint32]struct{}) ([]retiredNode, int) {
	d.scans.Add(1)
	kept := items[:0]
	freed := 0
	for _, it := range items {
		if _, ok := hazards[it.ref]; ok {
			kept = append(kept, it)
			continue
		}
		it.free(it.ref)
		freed++
	}
	d.freed.Add(int64(freed))
	return kept, freed
}

func (d *Domain) pushOrphans(items []retiredNode) {
	if len(items) == 0 {
		return
	}
	b := &orphanBatch{items: items}
	for {
		b.next = d.orphans.Load()
		if d.orphans.CompareAndSwap(b.next, b) {
			d.orphaned.Add(int64(len(items)))
			return
		}
	}
}

func (d *Domain) takeOrphans() []retiredNode {
	if d.orphans.Load() == nil {
		return nil
	}
	var items []retiredNode
	for b := d.orphans.Swap(nil); b != nil; b = b.next {
		items = append(items, b.items...)
	}
	d.orphaned.Add(-int64(len(items)))
	return items
}

// Record is one participant's row in the hazard table.
type Record struct {
	_           cpu.CacheLinePad
	active      atomic.Bool
	hazards     []atomic.Uint32
	retiredList *queue.Queue
	domain      *Domain
	id          int
	_           cpu.CacheLinePad
}

var _ api.Participant = (*Record)(nil)

// ID is the index of the record in the domain table.
func (r *Record) ID() int { return r.id }

// Enter is a no-op: hazard protection is per reference, not per section.
func (r *Record) Enter() {}

// Leave clears every hazard of the record.
func (r *Record) Leave() {
	for i := range r.hazards {
		r.hazards[i].Store(0)
	}
}
