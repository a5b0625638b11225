package seo

import "time"

// Config carries the on-page auditor knobs.
type Config struct {
	// FetchTimeout bounds the page fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{FetchTimeout: 15 * time.Second}
}
