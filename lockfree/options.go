// File: lockfree/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package lockfree

import (
	"fmt"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
)

// Config holds container parameters.
type Config struct {
	// Capacity bounds the number of nodes allocated at once. A full arena
	// makes Push, Enqueue and Insert fail with api.ErrOutOfMemory.
	Capacity int
	// Buckets is the Map bucket count, a power of two.
	Buckets int

	hasher any
}

// DefaultConfig returns a 1M-node capacity and 1024 map buckets.
func DefaultConfig() Config {
	return Config{
		Capacity: arena.DefaultConfig().Capacity,
		Buckets:  1024,
	}
}

// Option customizes a container.
type Option func(*Config)

// WithCapacity bounds the container's node arena.
func WithCapacity(n int) Option {
	return func(c *Config) { c.Capacity = n }
}

// WithBuckets sets the Map bucket count. It must be a power of two.
func WithBuckets(n int) Option {
	return func(c *Config) { c.Buckets = n }
}

// WithHasher replaces the Map's default key hash.
func WithHasher[K comparable](fn func(K) uint64) Option {
	return func(c *Config) { c.hasher = fn }
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c Config) arenaOption() arena.Option {
	return arena.WithCapacity(c.Capacity)
}

func (c Config) validateBuckets() {
	if c.Buckets < 1 || c.Buckets&(c.Buckets-1) != 0 {
		panic(fmt.Errorf("%w: bucket count %d is not a power of two", api.ErrInvalidArgument, c.Buckets))
	}
}
