package suggest

// Config carries the generator knobs.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// Model is the model id used for generation.
	Model string

	// MaxTokens caps one suggestion.
	MaxTokens int64
}

// DefaultConfig returns the production defaults. The API key has no default.
func DefaultConfig() Config {
	return Config{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 512,
	}
}
