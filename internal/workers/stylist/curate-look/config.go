package curatelook

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultTheme string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		DefaultTheme: "Current Trends",
	}
}
