// File: reclaim/hazard/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package hazard

// Config holds hazard domain parameters.
type Config struct {
	MaxRecords       int // participants that may be registered at once
	HazardsPerRecord int // hazard slots per participant
	ScanThreshold    int // retired list length that triggers a scan
}

// DefaultConfig returns 64 records with 2 hazards each and a scan every 128
// retirements.
func DefaultConfig() Config {
	return Config{
		MaxRecords:       64,
		HazardsPerRecord: 2,
		ScanThreshold:    128,
	}
}

// Option customizes a Domain.
type Option func(*Config)

// WithMaxRecords sets the size of the hazard table.
func WithMaxRecords(n int) Option {
	return func(c *Config) { c.MaxRecords = n }
}

// WithHazardsPerRecord sets the number of hazard slots per record.
func WithHazardsPerRecord(n int) Option {
	return func(c *Config) { c.HazardsPerRecord = n }
}

// WithScanThreshold sets the retired-list length that triggers a scan.
func WithScanThreshold(n int) Option {
	return func(c *Config) { c.ScanThreshold = n }
}
