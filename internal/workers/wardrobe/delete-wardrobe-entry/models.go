package deletewardrobeentry

const (
	KindItem   = "item"
	KindOutfit = "outfit"
)

type Input struct {
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
	ID     string `json:"id"`
}

type Output struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
