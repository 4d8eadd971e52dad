// Package api
// Author: momentics@gmail.com
//
// Bounded lock-free ring buffer contract for cross-goroutine producer/consumer.

package api

// Ring is a bounded, non-blocking buffer contract. Fullness and emptiness are
// ordinary results: neither call spins or waits.
type Ring[T any] interface {
	// TryEnqueue adds an item, returns false if full.
	TryEnqueue(item T) bool
	// TryDequeue removes oldest item, returns false if empty.
	TryDequeue() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns the number of items the buffer can hold.
	Cap() int
}
