package stylistchat

import "time"

type Config struct {
	Timeout time.Duration
	// HistoryTurns is how many prior messages are shown to the stylist.
	HistoryTurns int
	// MaxHistory caps the history returned to the process.
	MaxHistory int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      45 * time.Second,
		HistoryTurns: 4,
		MaxHistory:   50,
	}
}
