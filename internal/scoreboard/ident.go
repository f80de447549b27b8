package scoreboard

import "github.com/google/uuid"

// newID returns a collision-resistant identifier for games, match summaries
// and saved-name profiles
func newID() string {
	return uuid.New().String()
}
