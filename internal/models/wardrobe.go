// internal/models/wardrobe.go
package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Gender string

const (
	GenderMen    Gender = "Men"
	GenderWomen  Gender = "Women"
	GenderUnisex Gender = "Unisex"
)

// Valid reports whether g is one of the supported profile genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

type Profile struct {
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Gender    Gender    `json:"gender"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PromptContext is the profile as shown to the stylist. A nil profile yields "{}".
func (p *Profile) PromptContext() string {
	if p == nil {
		return "{}"
	}
	b, _ := json.Marshal(map[string]string{"nickname": p.Nickname, "gender": string(p.Gender)})
	return string(b)
}

// GenderOrUnisex returns the profile gender, or Unisex when unknown.
func (p *Profile) GenderOrUnisex() Gender {
	if p == nil || !p.Gender.Valid() {
		return GenderUnisex
	}
	return p.Gender
}

const (
	CategoryTop       = "Top"
	CategoryBottom    = "Bottom"
	CategoryShoes     = "Shoes"
	CategoryAccessory = "Accessory"
	CategoryUnknown   = "Unknown"
)

// NormalizeCategory maps free-form stylist output onto the closet categories.
func NormalizeCategory(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "tops", "shirt", "t-shirt", "blouse", "sweater", "jacket", "outerwear":
		return CategoryTop
	case "bottom", "bottoms", "pants", "trousers", "jeans", "skirt", "shorts":
		return CategoryBottom
	case "shoes", "shoe", "footwear", "sneakers", "boots", "heels":
		return CategoryShoes
	case "accessory", "accessories", "bag", "belt", "jewelry", "jewellery", "hat", "watch", "scarf":
		return CategoryAccessory
	}
	return CategoryUnknown
}

type ClothingItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Style       string    `json:"style"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClothingSummary is the compact form sent to the stylist; images are never included.
type ClothingSummary struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Color       string `json:"color"`
	Style       string `json:"style"`
	Description string `json:"description"`
}

func (c ClothingItem) Summary() ClothingSummary {
	return ClothingSummary{
		ID:          c.ID,
		Category:    c.Category,
		Color:       c.Color,
		Style:       c.Style,
		Description: c.Description,
	}
}

type MissingItem struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Why         string `json:"why"`
	MyntraQuery string `json:"myntraQuery"`
	ShopURL     string `json:"shopUrl,omitempty"`
}

type Outfit struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	TopID       string       `json:"topId"`
	BottomID    string       `json:"bottomId"`
	ShoesID     string       `json:"shoesId"`
	AccessoryID *string      `json:"accessoryId"`
	Reasoning   string       `json:"reasoning"`
	MissingItem *MissingItem `json:"missingItem"`
	Occasion    string       `json:"occasion,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type ShopItem struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Query   string `json:"query"`
	ShopURL string `json:"shopUrl"`
}

// LookFeedEntry is one curated shopping look in a user's feed.
type LookFeedEntry struct {
	LookName  string     `json:"lookName"`
	Vibe      string     `json:"vibe"`
	Theme     string     `json:"theme"`
	Items     []ShopItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
