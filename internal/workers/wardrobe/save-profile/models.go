package saveprofile

import "muse-workers/internal/models"

type Input struct {
	UserID   string        `json:"userId"`
	Nickname string        `json:"nickname"`
	Gender   models.Gender `json:"gender"`
}

type Output struct {
	Profile models.Profile `json:"profile"`
	// LooksCleared is false when the old curated looks could not be dropped.
	LooksCleared bool `json:"looksCleared"`
}
