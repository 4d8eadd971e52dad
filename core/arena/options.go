// File: core/arena/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arena

// Config holds arena parameters.
type Config struct {
	// Capacity is the maximum number of nodes allocated at once.
	Capacity int
}

// DefaultConfig returns a 1M-node arena.
func DefaultConfig() Config {
	return Config{Capacity: 1 << 20}
}

// Option customizes arena construction.
type Option func(*Config)

// WithCapacity bounds the number of simultaneously allocated nodes.
func WithCapacity(n int) Option {
	return func(c *Config) {
		c.Capacity = n
	}
}
