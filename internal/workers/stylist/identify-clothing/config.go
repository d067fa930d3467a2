package identifyclothing

import "time"

type Config struct {
	Timeout time.Duration
	// CacheSize bounds the in-process cache of identified images.
	CacheSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   60 * time.Second,
		CacheSize: 256,
	}
}
