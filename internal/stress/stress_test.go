package stress

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestRunReleasesAllWorkersTogether(t *testing.T) {
	c := qt.New(t)
	var started atomic.Int32
	err := Run(Config{Workers: 4, Pin: true}, func(id int) error {
		started.Add(1)
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(started.Load(), qt.Equals, int32(4))
}

func TestRunCollectsErrorsAndPanics(t *testing.T) {
	c := qt.New(t)
	boom := errors.New("boom")
	err := Run(Config{Workers: 3}, func(id int) error {
		switch id {
		case 0:
			return boom
		case 1:
			panic("kaboom")
		}
		return nil
	})
	c.Assert(errors.Is(err, boom), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `(?s).*worker 1 panicked: kaboom.*`)
}

func TestRunTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	err := Run(Config{Workers: 1, Timeout: 10 * time.Millisecond}, func(int) error {
		<-block
		return nil
	})
	qt.New(t).Assert(errors.Is(err, ErrTimeout), qt.IsTrue)
}

func TestTally(t *testing.T) {
	c := qt.New(t)
	tl := NewTally(3)
	c.Assert(tl.Hit(0), qt.IsNil)
	c.Assert(tl.Hit(2), qt.IsNil)
	c.Assert(tl.Check(), qt.ErrorMatches, `.*\[1\]`)
	c.Assert(tl.Hit(2), qt.ErrorMatches, `stress: value 2 observed 2 times`)
	c.Assert(tl.Hit(5), qt.Not(qt.IsNil))
	c.Assert(tl.Hit(1), qt.IsNil)
	c.Assert(tl.Check(), qt.IsNil)
	c.Assert(tl.Count(), qt.Equals, 3)
}
