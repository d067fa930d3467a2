// internal/models/stylist.go
package models

// Payload is a typed result decoded from a stylist response.
type Payload interface {
	Kind() string
	// Schema is a JSON Schema document the decoded object must satisfy.
	Schema() string
}

type ClothingIdentification struct {
	Category    string `json:"category"`
	Color       string `json:"color"`
	Style       string `json:"style"`
	Description string `json:"description"`
}

func (ClothingIdentification) Kind() string { return "clothing_identification" }

func (ClothingIdentification) Schema() string {
	return `{
  "type": "object",
  "required": ["category", "color", "style", "description"],
  "properties": {
    "category":    {"type": "string"},
    "color":       {"type": "string"},
    "style":       {"type": "string"},
    "description": {"type": "string"}
  }
}`
}

// FallbackIdentification is used when the stylist cannot describe an image.
func FallbackIdentification() ClothingIdentification {
	return ClothingIdentification{
		Category:    CategoryUnknown,
		Color:       "Unknown",
		Style:       "Casual",
		Description: "Item",
	}
}

type OutfitSelection struct {
	TopID       string       `json:"topId"`
	BottomID    string       `json:"bottomId"`
	ShoesID     string       `json:"shoesId"`
	AccessoryID *string      `json:"accessoryId"`
	Reasoning   string       `json:"reasoning"`
	MissingItem *MissingItem `json:"missingItem"`
}

func (OutfitSelection) Kind() string { return "outfit_selection" }

func (OutfitSelection) Schema() string {
	return `{
  "type": "object",
  "required": ["topId", "bottomId", "shoesId"],
  "properties": {
    "topId":       {"type": "string"},
    "bottomId":    {"type": "string"},
    "shoesId":     {"type": "string"},
    "accessoryId": {"type": ["string", "null"]},
    "reasoning":   {"type": "string"},
    "missingItem": {
      "type": ["object", "null"],
      "properties": {
        "name":        {"type": "string"},
        "type":        {"type": "string"},
        "why":         {"type": "string"},
        "myntraQuery": {"type": "string"}
      }
    }
  }
}`
}

type PackingList struct {
	SelectedItemIDs []string `json:"selectedItemIds"`
	TravelAdvice    string   `json:"travelAdvice"`
}

func (PackingList) Kind() string { return "packing_list" }

func (PackingList) Schema() string {
	return `{
  "type": "object",
  "required": ["selectedItemIds"],
  "properties": {
    "selectedItemIds": {"type": "array", "items": {"type": "string"}},
    "travelAdvice":    {"type": "string"}
  }
}`
}

type LookItem struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Query string `json:"query"`
}

type CuratedLook struct {
	LookName string     `json:"lookName"`
	Vibe     string     `json:"vibe"`
	Items    []LookItem `json:"items"`
}

func (CuratedLook) Kind() string { return "curated_look" }

func (CuratedLook) Schema() string {
	return `{
  "type": "object",
  "required": ["lookName", "items"],
  "properties": {
    "lookName": {"type": "string", "minLength": 1},
    "vibe":     {"type": "string"},
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "name", "query"],
        "properties": {
          "type":  {"type": "string"},
          "name":  {"type": "string"},
          "query": {"type": "string"}
        }
      }
    }
  }
}`
}
