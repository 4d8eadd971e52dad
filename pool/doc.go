// Package pool
// Author: momentics <momentics@gmail.com>
//
// Typed object pooling for hioload-lockfree. SyncPool recycles retired RCU
// versions so that a steady stream of updates does not churn the heap.
package pool
