package generateoutfit

import "muse-workers/internal/models"

type Input struct {
	UserID   string `json:"userId"`
	Occasion string `json:"occasion"`
}

// Outfit holds the suggested pieces resolved against the closet. A slot is nil
// when the stylist named an id the closet does not have.
type Outfit struct {
	Top       *models.ClothingSummary `json:"top"`
	Bottom    *models.ClothingSummary `json:"bottom"`
	Shoes     *models.ClothingSummary `json:"shoes"`
	Accessory *models.ClothingSummary `json:"accessory"`
	Reasoning string                  `json:"reasoning"`
}

type Output struct {
	Outfit             Outfit              `json:"outfit"`
	ShopRecommendation *models.MissingItem `json:"shopRecommendation"`
	Occasion           string              `json:"occasion"`
}
