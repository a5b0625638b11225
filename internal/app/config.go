package app

import (
	"github.com/sitelens/sitelens/internal/axe"
	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/security"
	"github.com/sitelens/sitelens/internal/seo"
	"github.com/sitelens/sitelens/internal/suggest"
)

// Config aggregates the component configurations the orchestrator wires
// together.
type Config struct {
	Security   security.Config
	Browser    browser.Config
	Lighthouse lighthouse.Config
	Axe        axe.Config
	SEO        seo.Config
	Suggest    suggest.Config
}

// DefaultConfig returns a Config populated with each component's defaults.
func DefaultConfig() *Config {
	return &Config{
		Security:   security.DefaultConfig(),
		Browser:    browser.DefaultConfig(),
		Lighthouse: lighthouse.DefaultConfig(),
		Axe:        axe.DefaultConfig(),
		SEO:        seo.DefaultConfig(),
		Suggest:    suggest.DefaultConfig(),
	}
}
