// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration store with lock-free snapshot reads and hot-reload
// propagation.

package control

import (
	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/rcu"
)

type configMap map[string]any

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	config *rcu.Cell[configMap]
	hooks  *ReloadHooks
}

var _ api.Config = (*ConfigStore)(nil)

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: rcu.New(configMap{}, rcu.WithClone(cloneMap[string, any, configMap])),
		hooks:  NewReloadHooks(),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cur := *cs.config.Read()
	out := make(map[string]any, len(cur))
	for k, v := range cur {
		out[k] = v
	}
	return out
}

// Get returns a single value from the current version.
func (cs *ConfigStore) Get(key string) (any, bool) {
	v, ok := (*cs.config.Read())[key]
	return v, ok
}

// SetConfig merges new values and dispatches reload listeners
// asynchronously.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.merge(newCfg)
	cs.hooks.Trigger()
}

// SetConfigSync merges new values and runs reload listeners before
// returning.
func (cs *ConfigStore) SetConfigSync(newCfg map[string]any) {
	cs.merge(newCfg)
	cs.hooks.TriggerSync()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.hooks.Register(fn)
}

// Version counts published configurations.
func (cs *ConfigStore) Version() uint64 { return cs.config.Version() }

func (cs *ConfigStore) merge(newCfg map[string]any) {
	cs.config.Update(func(m *configMap) {
		for k, v := range newCfg {
			(*m)[k] = v
		}
	})
}
