package browser

import "time"

// Config carries browser launch knobs.
type Config struct {
	// ExecPath overrides the Chrome binary location. Empty means chromedp's
	// default lookup.
	ExecPath string

	// LaunchTimeout bounds process startup.
	LaunchTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{LaunchTimeout: 30 * time.Second}
}
