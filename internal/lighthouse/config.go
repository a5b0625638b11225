package lighthouse

import "time"

// Config carries the analyzer knobs.
type Config struct {
	// BinPath is the lighthouse executable.
	BinPath string

	// RunTimeout bounds one full analysis run.
	RunTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BinPath:    "lighthouse",
		RunTimeout: 3 * time.Minute,
	}
}
