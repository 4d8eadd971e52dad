// File: reclaim/hazard/record.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hazard

import (
	"log"

	"github.com/momentics/hioload-lockfree/core/atomicx"
)

// Protect announces the reference currently held in src in hazard slot and
// returns it. The announcement is validated by re-reading src; the loop ends
// once the announced value is still the current one, so the node cannot have
// been retired before the announcement became visible to scanners.
func (r *Record) Protect(slot int, src *atomicx.TaggedWord) atomicx.TaggedRef {
	ref := src.Load(atomicx.Acquire)
	for {
		r.hazards[slot].Store(ref.Index())
		again := src.Load(atomicx.Acquire)
		if again == ref {
			return ref
		}
		ref = again
	}
}

// ProtectRef publishes ref in slot without validation. The caller must
// re-validate its source afterwards.
func (r *Record) ProtectRef(slot int, ref uint32) {
	r.hazards[slot].Store(ref)
}

// Hazard returns the reference announced in slot.
func (r *Record) Hazard(slot int) uint32 {
	return r.hazards[slot].Load()
}

// Clear drops the protection held in slot.
func (r *Record) Clear(slot int) {
	r.hazards[slot].Store(0)
}

// Retire queues ref for reclamation and scans once the private list reaches
// the domain threshold.
func (r *Record) Retire(ref uint32, free func(uint32)) {
	r.retiredList.Add(retiredNode{ref: ref, free: free})
	r.domain.retired.Add(1)
	if r.retiredList.Length() >= r.domain.cfg.ScanThreshold {
		r.Scan()
	}
}

// Retired returns the length of the private retired list.
func (r *Record) Retired() int {
	return r.retiredList.Length()
}

// Scan frees every retired reference that no hazard slot announces and
// returns the number freed. Orphans left by released records are adopted
// first. With nothing retired and no orphans it returns immediately without
// reading any hazard.
func (r *Record) Scan() int {
	d := r.domain
	if r.retiredList.Length() == 0 && d.orphans.Load() == nil {
		return 0
	}
	if adopted := d.takeOrphans(); len(adopted) > 0 {
		log.Printf("[hazard] record %d adopted %d orphaned retirements", r.id, len(adopted))
		for _, it := range adopted {
			r.retiredList.Add(it)
		}
	}

	items := make([]retiredNode, 0, r.retiredList.Length())
	for r.retiredList.Length() > 0 {
		items = append(items, r.retiredList.Remove().(retiredNode))
	}
	kept, freed := d.reclaim(items, d.snapshot())
	for _, it := range kept {
		r.retiredList.Add(it)
	}
	return freed
}

// Release clears the record's hazards, scans once, and hands whatever is
// still protected to the domain orphan list before freeing the record.
func (r *Record) Release() {
	r.Leave()
	r.Scan()
	if n := r.retiredList.Length(); n > 0 {
		left := make([]retiredNode, 0, n)
		for r.retiredList.Length() > 0 {
			left = append(left, r.retiredList.Remove().(retiredNode))
		}
		r.domain.pushOrphans(left)
	}
	r.retiredList = nil
	r.domain.inUse.Add(-1)
	r.active.Store(false)
}

// Unregister implements api.Participant.
func (r *Record) Unregister() { r.Release() }
