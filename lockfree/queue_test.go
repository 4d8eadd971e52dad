package lockfree

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/internal/stress"
	"github.com/momentics/hioload-lockfree/reclaim/epoch"
)

func TestQueueFIFO(t *testing.T) {
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		q := NewQueue[int]()
		p := register(c, r)
		_, ok := q.Dequeue(p)
		c.Assert(ok, qt.IsFalse)
		for i := 1; i <= 3; i++ {
			c.Assert(q.Enqueue(p, i), qt.IsNil)
		}
		for want := 1; want <= 3; want++ {
			v, ok := q.Dequeue(p)
			c.Assert(ok, qt.IsTrue)
			c.Assert(v, qt.Equals, want)
		}
		_, ok = q.Dequeue(p)
		c.Assert(ok, qt.IsFalse)
		p.Unregister()
		quiesce(c, r)
		c.Assert(q.Nodes().Live, qt.Equals, 1, qt.Commentf("only the dummy stays live"))
	})
}

func TestQueueCapacityExcludesDummy(t *testing.T) {
	c := qt.New(t)
	q := NewQueue[int](WithCapacity(1))
	p := register(c, epoch.NewDomain())
	c.Assert(q.Enqueue(p, 1), qt.IsNil)
	err := q.Enqueue(p, 2)
	c.Assert(errors.Is(err, api.ErrOutOfMemory), qt.IsTrue)
}

type item struct {
	producer int
	seq      int
}

// Every consumer must see each producer's items in increasing order, and
// the union of what consumers saw must be exactly what was produced.
func TestQueueFIFOPerProducer(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perProd   = 5000
		total     = producers * perProd
	)
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		q := NewQueue[item]()
		tally := stress.NewTally(total)
		var taken atomic.Int64
		err := stress.Run(stress.Config{Workers: producers + consumers, Pin: true}, func(id int) error {
			p, err := r.Register()
			if err != nil {
				return err
			}
			defer p.Unregister()
			if id < producers {
				for i := 0; i < perProd; i++ {
					if err := q.Enqueue(p, item{producer: id, seq: i}); err != nil {
						return err
					}
				}
				return nil
			}
			last := make([]int, producers)
			for i := range last {
				last[i] = -1
			}
			for taken.Load() < total {
				it, ok := q.Dequeue(p)
				if !ok {
					continue
				}
				taken.Add(1)
				if it.seq <= last[it.producer] {
					return fmt.Errorf("producer %d: seq %d after %d", it.producer, it.seq, last[it.producer])
				}
				last[it.producer] = it.seq
				if err := tally.Hit(it.producer*perProd + it.seq); err != nil {
					return err
				}
			}
			return nil
		})
		c.Assert(err, qt.IsNil)
		c.Assert(tally.Check(), qt.IsNil)
		_, ok := q.Dequeue(register(c, r))
		c.Assert(ok, qt.IsFalse)
		c.Assert(q.Len(), qt.Equals, 0)
	})
}
