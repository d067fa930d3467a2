package plantrip

import "time"

type Config struct {
	Timeout     time.Duration
	MaxTripDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		MaxTripDays: 30,
	}
}
