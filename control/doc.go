// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, configuration control, and debug introspection for
// hioload-lockfree, built on the library's own primitives.
//
// Provides:
//   - MetricsRegistry: counters in a lock-free map under epoch reclamation
//   - ConfigStore and ReloadHooks: RCU-published snapshots and listeners
//   - DebugProbes: probe registration, reclaimer and platform probes
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
