package server

// Config carries the API server knobs.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
}

// DefaultConfig returns development defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":5000",
		AllowedOrigins: []string{"*"},
	}
}
