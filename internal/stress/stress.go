// File: internal/stress/stress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Invariant-checking harness for the concurrency tests: barrier-started,
// optionally pinned workers, panic capture, and a per-value hit tally that
// proves conservation (no loss, no duplication).

package stress

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-lockfree/affinity"
)

// ErrTimeout is returned when workers do not finish within Config.Timeout.
var ErrTimeout = errors.New("stress: workers timed out")

// Config tunes a stress run.
type Config struct {
	Workers int           // number of concurrent workers
	Pin     bool          // pin each worker's OS thread to its own CPU
	Timeout time.Duration // zero means DefaultConfig().Timeout
}

// DefaultConfig returns one worker per usable CPU, unpinned, 30s timeout.
func DefaultConfig() Config {
	return Config{
		Workers: affinity.NumCPU(),
		Timeout: 30 * time.Second,
	}
}

// Run starts cfg.Workers goroutines, releases them together and waits for
// all of them. Worker errors and panics are joined into the result.
func Run(cfg Config, fn func(id int) error) error {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
		mu    sync.Mutex
		errs  []error
	)
	start := make(chan struct{})
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	ready.Add(cfg.Workers)
	done.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go func(id int) {
			defer done.Done()
			if cfg.Pin {
				defer runtime.UnlockOSThread()
				if cpu, err := affinity.PinWorker(id); err != nil {
					log.Printf("[stress] worker %d not pinned to cpu %d: %v", id, cpu, err)
				}
			}
			ready.Done()
			<-start
			defer func() {
				if r := recover(); r != nil {
					record(fmt.Errorf("worker %d panicked: %v", id, r))
				}
			}()
			if err := fn(id); err != nil {
				record(fmt.Errorf("worker %d: %w", id, err))
			}
		}(i)
	}
	ready.Wait()
	close(start)

	finished := make(chan struct{})
	go func() {
		done.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(cfg.Timeout):
		return fmt.Errorf("%w after %v", ErrTimeout, cfg.Timeout)
	}

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}

// Tally counts hits per value in [0, n). Conservation holds when every value
// was hit exactly once.
type Tally struct {
	hits []atomic.Uint32
}

// NewTally creates a tally for values 0..n-1.
func NewTally(n int) *Tally {
	return &Tally{hits: make([]atomic.Uint32, n)}
}

// Hit records v, failing on out-of-range values and duplicates.
func (t *Tally) Hit(v int) error {
	if v < 0 || v >= len(t.hits) {
		return fmt.Errorf("stress: value %d outside [0,%d)", v, len(t.hits))
	}
	if n := t.hits[v].Add(1); n != 1 {
		return fmt.Errorf("stress: value %d observed %d times", v, n)
	}
	return nil
}

// Check reports values that were never hit.
func (t *Tally) Check() error {
	var missing []int
	for i := range t.hits {
		if t.hits[i].Load() == 0 {
			missing = append(missing, i)
			if len(missing) == 8 {
				break
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("stress: values never observed (first %d): %v", len(missing), missing)
	}
	return nil
}

// Count returns the number of distinct values hit so far.
func (t *Tally) Count() int {
	n := 0
	for i := range t.hits {
		if t.hits[i].Load() > 0 {
			n++
		}
	}
	return n
}
