package epoch

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
	"github.com/momentics/hioload-lockfree/core/atomicx"
	"github.com/momentics/hioload-lockfree/internal/stress"
)

func TestQuiescedDomainDrains(t *testing.T) {
	c := qt.New(t)
	d := NewDomain(WithAdvanceEvery(1 << 20))
	freed := 0
	for i := 0; i < 4; i++ {
		p, err := d.Acquire()
		c.Assert(err, qt.IsNil)
		for j := 0; j < 10; j++ {
			p.Retire(uint32(i*10+j+1), func(uint32) { freed++ })
		}
	}
	c.Assert(d.Pending(), qt.Equals, 40)

	advances := 0
	for d.Pending() > 0 && advances < 3 {
		c.Assert(d.TryAdvance(), qt.IsTrue)
		advances++
	}
	c.Assert(d.Pending(), qt.Equals, 0)
	c.Assert(freed, qt.Equals, 40)
	c.Assert(d.Stats().Advances, qt.Equals, int64(advances))
}

func TestActiveParticipantBlocksReclamation(t *testing.T) {
	c := qt.New(t)
	d := NewDomain()
	var freed []uint32
	free := func(ref uint32) { freed = append(freed, ref) }

	reader, _ := d.Acquire()
	writer, _ := d.Acquire()
	reader.Enter()

	writer.Retire(1, free) // epoch 0, then advances to 1
	c.Assert(d.Epoch(), qt.Equals, uint64(1))
	writer.Retire(2, free) // epoch 1, advance blocked by reader
	c.Assert(d.Epoch(), qt.Equals, uint64(1))
	c.Assert(d.TryAdvance(), qt.IsFalse)
	c.Assert(d.Stats().Blocked, qt.IsTrue)
	c.Assert(freed, qt.HasLen, 0)
	c.Assert(d.Pending(), qt.Equals, 2)

	reader.Leave()
	c.Assert(d.Flush(), qt.IsTrue)
	c.Assert(freed, qt.DeepEquals, []uint32{1, 2})
	c.Assert(d.Stats().Blocked, qt.IsFalse)
}

func TestNestedEnter(t *testing.T) {
	c := qt.New(t)
	d := NewDomain()
	p, _ := d.Acquire()
	p.Enter()
	p.Enter()
	c.Assert(d.TryAdvance(), qt.IsTrue)
	p.Leave()
	c.Assert(p.Active(), qt.IsTrue)
	c.Assert(d.TryAdvance(), qt.IsFalse, qt.Commentf("inner Leave must not end the section"))
	p.Leave()
	c.Assert(p.Active(), qt.IsFalse)
	c.Assert(d.TryAdvance(), qt.IsTrue)
}

func TestLeaveWithoutEnterPanics(t *testing.T) {
	c := qt.New(t)
	p, _ := NewDomain().Acquire()
	var err error
	func() {
		defer func() { err, _ = recover().(error) }()
		p.Leave()
	}()
	c.Assert(errors.Is(err, api.ErrReclamationDefect), qt.IsTrue)
}

func TestParticipantExhaustion(t *testing.T) {
	c := qt.New(t)
	d := NewDomain(WithMaxParticipants(1))
	p, err := d.Register()
	c.Assert(err, qt.IsNil)
	_, err = d.Register()
	c.Assert(errors.Is(err, api.ErrSlotsExhausted), qt.IsTrue)
	c.Assert(api.CodeOf(err), qt.Equals, api.ErrCodeResourceExhausted)
	c.Assert(err, qt.ErrorMatches, `epoch domain: reclamation slots exhausted \(context: map\[participants:1\]\)`)

	p.Retire(5, func(uint32) {})
	p.Unregister()
	c.Assert(d.Stats().InUse, qt.Equals, 0)
	_, err = d.Register()
	c.Assert(err, qt.IsNil)
	c.Assert(d.Flush(), qt.IsTrue, qt.Commentf("retirements survive unregistration"))
}

func TestEpochSafetyUnderChurn(t *testing.T) {
	c := qt.New(t)
	const (
		writers = 2
		readers = 6
		rounds  = 20000
	)
	d := NewDomain()
	a := arena.New[int]()
	var word atomicx.TaggedWord

	err := stress.Run(stress.Config{Workers: writers + readers}, func(id int) error {
		p, err := d.Acquire()
		if err != nil {
			return err
		}
		defer p.Unregister()
		for i := 0; i < rounds; i++ {
			if id < writers {
				h, err := a.Alloc(id*rounds + i + 1)
				if err != nil {
					return err
				}
				if old := word.Swap(h, atomicx.AcqRel); !old.IsNil() {
					a.Retire(old.Index())
					p.Retire(old.Index(), a.Free)
				}
				continue
			}
			p.Enter()
			ref := p.Protect(0, &word)
			if !ref.IsNil() {
				n := a.Node(ref.Index())
				if n.Canary() != arena.CanaryLive || n.Value == 0 {
					p.Leave()
					return fmt.Errorf("reader saw reclaimed node %v", ref)
				}
			}
			p.Leave()
		}
		return nil
	})
	c.Assert(err, qt.IsNil)

	if last := word.Swap(0, atomicx.AcqRel); !last.IsNil() {
		a.Retire(last.Index())
		p, _ := d.Acquire()
		p.Retire(last.Index(), a.Free)
		p.Unregister()
	}
	c.Assert(d.Flush(), qt.IsTrue)
	c.Assert(a.Stats().Retired, qt.Equals, 0)
}
