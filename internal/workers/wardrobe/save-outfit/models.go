package saveoutfit

import "muse-workers/internal/models"

type OutfitInput struct {
	TopID       string  `json:"topId"`
	BottomID    string  `json:"bottomId"`
	ShoesID     string  `json:"shoesId"`
	AccessoryID *string `json:"accessoryId"`
	Reasoning   string  `json:"reasoning"`
}

type Input struct {
	UserID      string              `json:"userId"`
	Outfit      OutfitInput         `json:"outfit"`
	MissingItem *models.MissingItem `json:"missingItem"`
	// Custom marks an outfit the user assembled by hand.
	Custom   bool   `json:"custom"`
	Occasion string `json:"occasion"`
}

type Output struct {
	Outfit models.Outfit `json:"outfit"`
}
