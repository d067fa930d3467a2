package addclothingitem

import "muse-workers/internal/models"

type Input struct {
	UserID      string `json:"userId"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Color       string `json:"color"`
	Style       string `json:"style"`
	Description string `json:"description"`
}

// Output carries the stored item without its image.
type Output struct {
	Item    models.ClothingSummary `json:"item"`
	Indexed bool                   `json:"indexed"`
}
