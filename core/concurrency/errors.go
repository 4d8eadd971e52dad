// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrInvalidCapacity indicates a ring capacity that cannot be represented.
	ErrInvalidCapacity = errors.New("invalid ring capacity")
)

// maxCapacity keeps capacity+1 arithmetic on positions from wrapping.
const maxCapacity = 1 << 62

// ValidateCapacity reports whether capacity can back a ring.
func ValidateCapacity(capacity uint64) error {
	if capacity > maxCapacity {
		return ErrInvalidCapacity
	}
	return nil
}
