// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract object pooling API used to recycle RCU versions.

package api

// ObjectPool provides generic pooling of Go objects allocated transiently
type ObjectPool[T any] interface {
	// Get returns an available instance from pool
	Get() T

	// Put returns an instance for reuse
	Put(obj T)
}
