// File: reclaim/epoch/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package epoch

// Config holds epoch domain parameters.
type Config struct {
	MaxParticipants int // participants that may be registered at once
	AdvanceEvery    int // retirements between automatic TryAdvance calls
}

// DefaultConfig returns 64 participant slots, advancing on every retire.
func DefaultConfig() Config {
	return Config{
		MaxParticipants: 64,
		AdvanceEvery:    1,
	}
}

// Option customizes a Domain.
type Option func(*Config)

// WithMaxParticipants sets the size of the participant table.
func WithMaxParticipants(n int) Option {
	return func(c *Config) { c.MaxParticipants = n }
}

// WithAdvanceEvery sets how many retirements a participant performs between
// advancement attempts.
func WithAdvanceEvery(n int) Option {
	return func(c *Config) { c.AdvanceEvery = n }
}
