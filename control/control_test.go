package control

import (
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/internal/stress"
	"github.com/momentics/hioload-lockfree/reclaim/hazard"
)

func TestMetricsSetGet(t *testing.T) {
	c := qt.New(t)
	mr := NewMetricsRegistry()
	c.Assert(mr.Updated().IsZero(), qt.IsTrue)
	_, ok := mr.Get("conns")
	c.Assert(ok, qt.IsFalse)

	mr.Set("conns", 5)
	v, ok := mr.Get("conns")
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, int64(5))
	c.Assert(mr.Add("conns", 2), qt.Equals, int64(7))
	c.Assert(mr.Updated().IsZero(), qt.IsFalse)
	c.Assert(mr.GetSnapshot(), qt.DeepEquals, map[string]int64{"conns": 7})
}

func TestMetricsConcurrentAdd(t *testing.T) {
	c := qt.New(t)
	const (
		workers = 8
		rounds  = 1000
	)
	mr := NewMetricsRegistry()
	names := []string{"a", "b", "c", "d"}
	err := stress.Run(stress.Config{Workers: workers}, func(id int) error {
		for i := 0; i < rounds; i++ {
			mr.Add(names[(id+i)%len(names)], 1)
		}
		return nil
	})
	c.Assert(err, qt.IsNil)
	var total int64
	for _, v := range mr.GetSnapshot() {
		total += v
	}
	c.Assert(total, qt.Equals, int64(workers*rounds))
	c.Assert(mr.GetSnapshot(), qt.HasLen, len(names))
}

func TestMetricsReset(t *testing.T) {
	c := qt.New(t)
	mr := NewMetricsRegistry()
	mr.Set("x", 1)
	mr.Set("y", 2)
	mr.Reset()
	c.Assert(mr.GetSnapshot(), qt.HasLen, 0)
	mr.Add("x", 3)
	v, _ := mr.Get("x")
	c.Assert(v, qt.Equals, int64(3))
}

func TestMetricsSurviveFullDomain(t *testing.T) {
	c := qt.New(t)
	mr := NewMetricsRegistry()
	c.Assert(mr.Add("hits", 1), qt.Equals, int64(1))

	var held []api.Participant
	for {
		p, err := mr.Reclaimer().Register()
		if err != nil {
			c.Assert(errors.Is(err, api.ErrSlotsExhausted), qt.IsTrue)
			c.Assert(api.CodeOf(err), qt.Equals, api.ErrCodeResourceExhausted)
			break
		}
		held = append(held, p)
	}
	c.Assert(held, qt.Not(qt.HasLen), 0)

	c.Assert(mr.Add("hits", 1), qt.Equals, int64(2))
	v, ok := mr.Get("hits")
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, int64(2))
	mr.Set("misses", 4)
	c.Assert(mr.GetSnapshot(), qt.DeepEquals, map[string]int64{"hits": 2, "misses": 4})

	// Concurrent updates wait for the registry's own participants.
	err := stress.Run(stress.Config{Workers: 32}, func(int) error {
		for i := 0; i < 100; i++ {
			mr.Add("hits", 1)
		}
		return nil
	})
	c.Assert(err, qt.IsNil)
	v, _ = mr.Get("hits")
	c.Assert(v, qt.Equals, int64(2+32*100))

	for _, p := range held {
		p.Unregister()
	}
}

func TestDebugProbes(t *testing.T) {
	c := qt.New(t)
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })
	before := dp.DumpState()
	dp.RegisterProbe("name", func() any { return "lockfree" })
	c.Assert(before, qt.DeepEquals, map[string]any{"answer": 42})
	c.Assert(dp.DumpState(), qt.DeepEquals, map[string]any{"answer": 42, "name": "lockfree"})
}

func TestReclaimerProbes(t *testing.T) {
	c := qt.New(t)
	dp := NewDebugProbes()
	d := hazard.NewDomain()
	RegisterReclaimerProbes(dp, "hp", d)
	rec, err := d.AcquireSlot()
	c.Assert(err, qt.IsNil)
	rec.Retire(1, func(uint32) {})

	state := dp.DumpState()
	c.Assert(state["hp.scheme"], qt.Equals, "hazard")
	c.Assert(state["hp.pending"], qt.Equals, 1)
	c.Assert(state["hp.stats"].(hazard.Stats).InUse, qt.Equals, 1)

	mr := NewMetricsRegistry()
	RegisterReclaimerProbes(dp, "metrics", mr.Reclaimer())
	c.Assert(dp.DumpState()["metrics.blocked"], qt.Equals, false)
}

func TestPlatformProbes(t *testing.T) {
	c := qt.New(t)
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	state := dp.DumpState()
	c.Assert(state["platform.cpus"].(int) > 0, qt.IsTrue)
	c.Assert(state["platform.cacheline"].(int) > 0, qt.IsTrue)
	c.Assert(state["platform.kernel"], qt.Not(qt.Equals), "")
}

func TestConfigStoreReload(t *testing.T) {
	c := qt.New(t)
	cs := NewConfigStore()
	var (
		mu    sync.Mutex
		calls int
	)
	cs.OnReload(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	snap := cs.GetSnapshot()
	cs.SetConfigSync(map[string]any{"batch": 16})
	c.Assert(snap, qt.HasLen, 0)
	v, ok := cs.Get("batch")
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 16)
	c.Assert(calls, qt.Equals, 1)

	done := make(chan struct{})
	cs.OnReload(func() { close(done) })
	cs.SetConfig(map[string]any{"workers": 4})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.Fatal("async reload listener never ran")
	}
	c.Assert(cs.GetSnapshot(), qt.DeepEquals, map[string]any{"batch": 16, "workers": 4})
	c.Assert(cs.Version(), qt.Equals, uint64(2))
}
