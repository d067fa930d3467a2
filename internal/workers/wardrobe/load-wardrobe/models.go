package loadwardrobe

import "muse-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Profile         *models.Profile        `json:"profile"`
	NeedsOnboarding bool                   `json:"needsOnboarding"`
	Closet          []models.ClothingItem  `json:"closet"`
	Outfits         []models.Outfit        `json:"outfits"`
	CuratedLooks    []models.LookFeedEntry `json:"curatedLooks"`
}
