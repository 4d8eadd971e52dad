// File: control/hotreload.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reload hook list. Hooks are published through RCU so triggering never
// contends with registration.

package control

import "github.com/momentics/hioload-lockfree/rcu"

// ReloadHooks is an ordered list of reload listeners.
type ReloadHooks struct {
	hooks *rcu.Cell[[]func()]
}

// NewReloadHooks creates an empty hook list.
func NewReloadHooks() *ReloadHooks {
	return &ReloadHooks{
		hooks: rcu.New[[]func()](nil, rcu.WithClone(func(old *[]func()) *[]func() {
			next := append([]func(){}, *old...)
			return &next
		})),
	}
}

// Register adds a new component reload listener.
func (rh *ReloadHooks) Register(fn func()) {
	rh.hooks.Update(func(h *[]func()) {
		*h = append(*h, fn)
	})
}

// Len returns the number of registered hooks.
func (rh *ReloadHooks) Len() int { return len(*rh.hooks.Read()) }

// Trigger dispatches all reload hooks asynchronously.
func (rh *ReloadHooks) Trigger() {
	for _, fn := range *rh.hooks.Read() {
		go fn()
	}
}

// TriggerSync invokes all reload hooks synchronously (for test determinism).
func (rh *ReloadHooks) TriggerSync() {
	for _, fn := range *rh.hooks.Read() {
		fn()
	}
}
