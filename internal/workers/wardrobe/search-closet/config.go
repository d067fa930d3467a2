package searchcloset

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultSize: 20,
	}
}
