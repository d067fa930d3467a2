package retail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"muse-workers/internal/models"
)

func TestShopURL(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		gender models.Gender
		want   string
	}{
		{"empty query", "", models.GenderMen, "https://www.myntra.com/"},
		{"whitespace query", "   ", models.GenderWomen, "https://www.myntra.com/"},
		{"men suffix", "White Sneakers", models.GenderMen, "https://www.myntra.com/white-sneakers-men"},
		{"women suffix", "Linen Shirt", models.GenderWomen, "https://www.myntra.com/linen-shirt-women"},
		{"unisex untouched", "Canvas Tote", models.GenderUnisex, "https://www.myntra.com/canvas-tote"},
		{"already names women", "women kurta", models.GenderWomen, "https://www.myntra.com/women-kurta"},
		{"women query for men profile", "women kurta", models.GenderMen, "https://www.myntra.com/women-kurta-men"},
		{"digits kept", "501 Jeans", models.GenderUnisex, "https://www.myntra.com/501-jeans"},
		{"accents folded", "Café Crème Blazer", models.GenderUnisex, "https://www.myntra.com/cafe-creme-blazer"},
		{"punctuation dropped", "Men's  Chelsea   Boots!", models.GenderMen, "https://www.myntra.com/mens-chelsea-boots"},
		{"hyphen kept", "t-shirt", models.GenderUnisex, "https://www.myntra.com/t-shirt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShopURL(tt.query, tt.gender))
		})
	}
}

func TestLinkBuilder_CustomBase(t *testing.T) {
	b := NewLinkBuilder("https://shop.test")
	assert.Equal(t, "https://shop.test/red-dress-women", b.ShopURL("red dress", models.GenderWomen))
}
