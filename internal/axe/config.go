package axe

import "time"

// Config carries the accessibility runner knobs.
type Config struct {
	// ScriptPath points at a local axe.min.js. When empty the script is
	// fetched once from ScriptURL and cached for the process lifetime.
	ScriptPath string

	// ScriptURL is the CDN fallback for the rule engine source.
	ScriptURL string

	// RunTimeout bounds navigation plus rule evaluation for one page.
	RunTimeout time.Duration

	// NetworkIdleAfter is how long the page's network must be quiet before
	// rules run.
	NetworkIdleAfter time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ScriptURL:        "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js",
		RunTimeout:       90 * time.Second,
		NetworkIdleAfter: 2 * time.Second,
	}
}
