// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics collector. Counters live in a lock-free map; registering a
// new name is an insert, updating an existing one is a single atomic add.

package control

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/lockfree"
	"github.com/momentics/hioload-lockfree/reclaim"
	"github.com/momentics/hioload-lockfree/reclaim/epoch"
)

// participants kept registered by every registry so that counter traffic
// never competes with other users of the domain for slots.
const metricsParticipants = 16

// MetricsRegistry holds named int64 counters.
type MetricsRegistry struct {
	counters *lockfree.Map[string, *atomic.Int64]
	domain   *epoch.Domain
	parts    *reclaim.Pool
	updated  atomic.Int64 // unix nanos
}

var _ api.Metrics = (*MetricsRegistry)(nil)

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	d := epoch.NewDomain()
	parts := reclaim.NewPool(d, metricsParticipants)
	if err := parts.Reserve(metricsParticipants); err != nil {
		log.Printf("[metrics] %v", err)
	}
	return &MetricsRegistry{
		counters: lockfree.NewMap[string, *atomic.Int64](lockfree.WithBuckets(256)),
		domain:   d,
		parts:    parts,
	}
}

func (mr *MetricsRegistry) do(fn func(api.Participant) error) error {
	return mr.parts.DoContext(context.Background(), fn)
}

// counter finds or creates the counter for key. A nil counter with a nil
// error means the key is absent.
func (mr *MetricsRegistry) counter(key string, create bool) (*atomic.Int64, error) {
	var ctr *atomic.Int64
	err := mr.do(func(p api.Participant) error {
		if v, ok := mr.counters.Find(p, key); ok || !create {
			ctr = v
			return nil
		}
		fresh := new(atomic.Int64)
		inserted, err := mr.counters.Insert(p, key, fresh)
		if err != nil {
			return err
		}
		if inserted {
			ctr = fresh
			return nil
		}
		ctr, _ = mr.counters.Find(p, key)
		return nil
	})
	if err != nil {
		log.Printf("[metrics] counter %q unavailable: %v", key, err)
		return nil, err
	}
	return ctr, nil
}

func (mr *MetricsRegistry) touch() {
	mr.updated.Store(time.Now().UnixNano())
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value int64) {
	if ctr, _ := mr.counter(key, true); ctr != nil {
		ctr.Store(value)
		mr.touch()
	}
}

// Add increments key by delta and returns the new value.
func (mr *MetricsRegistry) Add(key string, delta int64) int64 {
	ctr, _ := mr.counter(key, true)
	if ctr == nil {
		return 0
	}
	v := ctr.Add(delta)
	mr.touch()
	return v
}

// Get returns the value of key. A key is only reported absent when the
// lookup actually ran; failing to reach the map panics.
func (mr *MetricsRegistry) Get(key string) (int64, bool) {
	ctr, err := mr.counter(key, false)
	if err != nil {
		panic(err)
	}
	if ctr == nil {
		return 0, false
	}
	return ctr.Load(), true
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	out := make(map[string]int64, mr.counters.Len())
	err := mr.do(func(p api.Participant) error {
		mr.counters.Range(p, func(k string, v *atomic.Int64) bool {
			out[k] = v.Load()
			return true
		})
		return nil
	})
	if err != nil {
		log.Printf("[metrics] snapshot failed: %v", err)
	}
	return out
}

// Reset drops every counter.
func (mr *MetricsRegistry) Reset() {
	err := mr.do(func(p api.Participant) error {
		mr.counters.Reset(p)
		return nil
	})
	if err != nil {
		log.Printf("[metrics] reset failed: %v", err)
		return
	}
	mr.touch()
}

// Updated returns the time of the last write, zero if none.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Reclaimer exposes the registry's reclamation domain for probes.
func (mr *MetricsRegistry) Reclaimer() api.Reclaimer { return mr.domain }
