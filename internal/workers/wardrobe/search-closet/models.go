package searchcloset

import "muse-workers/internal/models"

type Input struct {
	UserID   string `json:"userId"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Size     int    `json:"size"`
}

type Output struct {
	Items     []models.ClothingSummary `json:"items"`
	TotalHits int64                    `json:"totalHits"`
}
