package domain

// PlayerProfile is a saved, reusable player name independent of any single match
type PlayerProfile struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// ProfilePalette is the fixed color cycle for newly created profiles
var ProfilePalette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}
