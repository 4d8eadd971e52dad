// File: api/control.go
// Package api defines the diagnostics contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "time"

// Config is a snapshot-readable key/value configuration with reload
// listeners.
type Config interface {
	GetSnapshot() map[string]any
	SetConfig(cfg map[string]any)
	OnReload(fn func())
}

// Metrics is a registry of named int64 counters.
type Metrics interface {
	Set(key string, value int64)
	Add(key string, delta int64) int64
	Get(key string) (int64, bool)
	GetSnapshot() map[string]int64
	Updated() time.Time
}
