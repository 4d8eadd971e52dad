package pool

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

type buf struct{ data []byte }

func TestSyncPoolCreatesOnDemand(t *testing.T) {
	c := qt.New(t)
	sp := NewSyncPool(func() *buf { return &buf{data: make([]byte, 0, 64)} })
	b := sp.Get()
	c.Assert(b, qt.Not(qt.IsNil))
	c.Assert(cap(b.data), qt.Equals, 64)
	c.Assert(sp.Stats().Created, qt.Equals, int64(1))
}

func TestSyncPoolResetOnPut(t *testing.T) {
	c := qt.New(t)
	sp := NewSyncPool(func() *buf { return &buf{} }).WithReset(func(b *buf) { b.data = b.data[:0] })
	b := sp.Get()
	b.data = append(b.data, 1, 2, 3)
	sp.Put(b)
	c.Assert(b.data, qt.HasLen, 0)
	st := sp.Stats()
	c.Assert(st.Gets, qt.Equals, int64(1))
	c.Assert(st.Puts, qt.Equals, int64(1))
}
