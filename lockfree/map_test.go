package lockfree

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/internal/stress"
	"github.com/momentics/hioload-lockfree/reclaim/epoch"
)

func TestMapInsertFind(t *testing.T) {
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		m := NewMap[string, int](WithBuckets(4))
		p := register(c, r)
		defer p.Unregister()

		ok, err := m.Insert(p, "a", 1)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
		ok, err = m.Insert(p, "a", 2)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse, qt.Commentf("existing key must not be overwritten"))

		v, found := m.Find(p, "a")
		c.Assert(found, qt.IsTrue)
		c.Assert(v, qt.Equals, 1)
		_, found = m.Find(p, "missing")
		c.Assert(found, qt.IsFalse)
		c.Assert(m.Len(), qt.Equals, 1)
		c.Assert(m.Nodes().Live, qt.Equals, 1, qt.Commentf("losing insert discards its node"))
	})
}

func TestMapCollidingChain(t *testing.T) {
	c := qt.New(t)
	m := NewMap[int, string](WithHasher(func(int) uint64 { return 7 }))
	p := register(c, epoch.NewDomain())
	for i := 0; i < 10; i++ {
		ok, err := m.Insert(p, i, fmt.Sprint(i))
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)
	}
	for i := 0; i < 10; i++ {
		v, ok := m.Find(p, i)
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, fmt.Sprint(i))
	}
	var keys []int
	m.Range(p, func(k int, _ string) bool {
		keys = append(keys, k)
		return true
	})
	sort.Ints(keys)
	c.Assert(keys, qt.DeepEquals, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestMapRangeStopsEarly(t *testing.T) {
	c := qt.New(t)
	m := NewMap[int, int]()
	p := register(c, epoch.NewDomain())
	for i := 0; i < 100; i++ {
		_, _ = m.Insert(p, i, i)
	}
	n := 0
	m.Range(p, func(int, int) bool {
		n++
		return n < 5
	})
	c.Assert(n, qt.Equals, 5)
}

func TestMapInvalidOptionsPanic(t *testing.T) {
	c := qt.New(t)
	catch := func(f func()) (err error) {
		defer func() { err, _ = recover().(error) }()
		f()
		return nil
	}
	err := catch(func() { NewMap[int, int](WithBuckets(3)) })
	c.Assert(errors.Is(err, api.ErrInvalidArgument), qt.IsTrue)
	err = catch(func() { NewMap[int, int](WithHasher(func(string) uint64 { return 0 })) })
	c.Assert(errors.Is(err, api.ErrInvalidArgument), qt.IsTrue)
}

func TestMapInsertOnceUnderContention(t *testing.T) {
	const (
		workers = 8
		keys    = 2000
	)
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		m := NewMap[int, int](WithBuckets(64))
		var wins [keys]atomic.Int32
		err := stress.Run(stress.Config{Workers: workers}, func(id int) error {
			p, err := r.Register()
			if err != nil {
				return err
			}
			defer p.Unregister()
			for k := 0; k < keys; k++ {
				ok, err := m.Insert(p, k, k*workers+id)
				if err != nil {
					return err
				}
				if ok {
					wins[k].Add(1)
				}
				v, found := m.Find(p, k)
				if !found || v/workers != k {
					return fmt.Errorf("key %d: found=%v value %d", k, found, v)
				}
			}
			return nil
		})
		c.Assert(err, qt.IsNil)
		for k := range wins {
			c.Assert(wins[k].Load(), qt.Equals, int32(1), qt.Commentf("key %d", k))
		}
		c.Assert(m.Len(), qt.Equals, keys)
		c.Assert(m.Nodes().Live, qt.Equals, keys)
	})
}

func TestMapReset(t *testing.T) {
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		m := NewMap[string, int](WithBuckets(8))
		p := register(c, r)
		for i := 0; i < 50; i++ {
			_, err := m.Insert(p, fmt.Sprintf("k%d", i), i)
			c.Assert(err, qt.IsNil)
		}
		c.Assert(m.Reset(p), qt.Equals, 50)
		c.Assert(m.Len(), qt.Equals, 0)
		_, found := m.Find(p, "k1")
		c.Assert(found, qt.IsFalse)

		ok, err := m.Insert(p, "k1", 100)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)

		p.Unregister()
		quiesce(c, r)
		c.Assert(m.Nodes().Live, qt.Equals, 1)
		c.Assert(m.Nodes().Retired, qt.Equals, 0)
	})
}

// Readers look keys up while another goroutine keeps refilling and
// resetting the map. A reader must never see a reclaimed entry.
func TestMapResetWithConcurrentReaders(t *testing.T) {
	const (
		readers = 6
		rounds  = 200
		keys    = 64
	)
	schemes(t, func(c *qt.C, r api.Reclaimer) {
		m := NewMap[int, int](WithBuckets(8))
		var done atomic.Bool
		err := stress.Run(stress.Config{Workers: readers + 1}, func(id int) error {
			p, err := r.Register()
			if err != nil {
				return err
			}
			defer p.Unregister()
			if id == 0 {
				defer done.Store(true)
				for i := 0; i < rounds; i++ {
					for k := 1; k <= keys; k++ {
						if _, err := m.Insert(p, k, 2*k); err != nil {
							return err
						}
					}
					m.Reset(p)
				}
				return nil
			}
			for !done.Load() {
				for k := 1; k <= keys; k++ {
					if v, ok := m.Find(p, k); ok && v != 2*k {
						return fmt.Errorf("key %d read reclaimed value %d", k, v)
					}
				}
			}
			return nil
		})
		c.Assert(err, qt.IsNil)
		quiesce(c, r)
		c.Assert(m.Nodes().Live, qt.Equals, 0)
		c.Assert(m.Nodes().Retired, qt.Equals, 0)
	})
}
