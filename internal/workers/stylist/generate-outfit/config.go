package generateoutfit

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultOccasion string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		DefaultOccasion: "Casual",
	}
}
