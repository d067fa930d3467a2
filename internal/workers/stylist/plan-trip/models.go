package plantrip

import "muse-workers/internal/models"

type Input struct {
	UserID      string `json:"userId"`
	Destination string `json:"destination"`
	Days        int    `json:"days"`
}

type Output struct {
	Destination  string                   `json:"destination"`
	Days         int                      `json:"days"`
	PackedItems  []models.ClothingSummary `json:"packedItems"`
	TravelAdvice string                   `json:"travelAdvice"`
	Fallback     bool                     `json:"fallback"`
}
