// File: control/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime debug handler and probe reflector for internal inspection.
// The probe table is read-mostly, so it is published through RCU.

package control

import (
	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/rcu"
	"github.com/momentics/hioload-lockfree/reclaim/epoch"
	"github.com/momentics/hioload-lockfree/reclaim/hazard"
)

type probeTable map[string]func() any

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	probes *rcu.Cell[probeTable]
}

var _ api.Debug = (*DebugProbes)(nil)

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: rcu.New(probeTable{}, rcu.WithClone(cloneMap[string, func() any, probeTable])),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.probes.Update(func(t *probeTable) {
		(*t)[name] = fn
	})
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	t := *dp.probes.Read()
	out := make(map[string]any, len(t))
	for k, fn := range t {
		out[k] = fn()
	}
	return out
}

// RegisterReclaimerProbes exposes pending retirements and scheme counters
// of r under the given prefix.
func RegisterReclaimerProbes(dp *DebugProbes, prefix string, r api.Reclaimer) {
	dp.RegisterProbe(prefix+".scheme", func() any { return r.Name() })
	dp.RegisterProbe(prefix+".pending", func() any { return r.Pending() })
	switch d := r.(type) {
	case *hazard.Domain:
		dp.RegisterProbe(prefix+".stats", func() any { return d.Stats() })
	case *epoch.Domain:
		dp.RegisterProbe(prefix+".stats", func() any { return d.Stats() })
		dp.RegisterProbe(prefix+".blocked", func() any { return d.Stats().Blocked })
	}
}

// cloneMap copies a map-typed RCU version.
func cloneMap[K comparable, V any, M ~map[K]V](old *M) *M {
	next := make(M, len(*old)+1)
	for k, v := range *old {
		next[k] = v
	}
	return &next
}
