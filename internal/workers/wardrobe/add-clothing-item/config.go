package addclothingitem

import "time"

type Config struct {
	Timeout time.Duration
	// MaxImageBytes bounds the encoded image accepted from the process.
	MaxImageBytes int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       15 * time.Second,
		MaxImageBytes: 4 << 20,
	}
}
