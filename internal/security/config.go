package security

import "time"

// Config carries the prober knobs.
type Config struct {
	// FetchTimeout bounds each of the two fetches (headers, then body for
	// the mixed-content check).
	FetchTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{FetchTimeout: 7 * time.Second}
}
