package domain

// HighlightColor is a user-configurable highlight color choice.
type HighlightColor struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Color RGBAColor `json:"color"`
}

// DefaultHighlightColors is used until the user saves their own palette.
func DefaultHighlightColors() []HighlightColor {
	return []HighlightColor{
		{ID: "default", Label: "Default", Color: RGBAColor{R: 255, G: 216, B: 0, A: 1}},
		{ID: "red", Label: "Red", Color: RGBAColor{R: 255, G: 138, B: 128, A: 1}},
		{ID: "green", Label: "Green", Color: RGBAColor{R: 152, G: 230, B: 160, A: 1}},
		{ID: "blue", Label: "Blue", Color: RGBAColor{R: 135, G: 200, B: 255, A: 1}},
		{ID: "purple", Label: "Purple", Color: RGBAColor{R: 205, G: 160, B: 255, A: 1}},
	}
}

// FindHighlightColor returns the color with the given ID.
func FindHighlightColor(colors []HighlightColor, id string) (RGBAColor, bool) {
	for _, c := range colors {
		if c.ID == id {
			return c.Color, true
		}
	}
	return RGBAColor{}, false
}
