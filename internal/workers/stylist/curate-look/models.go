package curatelook

import "muse-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	Theme  string `json:"theme"`
}

type Output struct {
	Look models.LookFeedEntry `json:"look"`
	// Saved reports whether the look reached the user's feed.
	Saved bool `json:"saved"`
}
