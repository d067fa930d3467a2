package identifyclothing

import "muse-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	Image  string `json:"image"`
}

type Output struct {
	models.ClothingIdentification
	// Fallback is set when the stylist could not describe the image.
	Fallback bool `json:"fallback"`
}
