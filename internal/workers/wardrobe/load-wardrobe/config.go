package loadwardrobe

import "time"

type Config struct {
	Timeout time.Duration
	// IncludeImages controls whether closet items carry their image data.
	IncludeImages bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       15 * time.Second,
		IncludeImages: true,
	}
}
