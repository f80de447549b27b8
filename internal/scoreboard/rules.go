package scoreboard

import "github.com/ernie/courtside/internal/domain"

// GameConfig is the subset of match settings the win rule depends on
type GameConfig struct {
	RaceTo   int
	MaxPoint int
	WinByTwo bool
}

// DidWinGame reports whether a player with the given score has won the game.
// Reaching MaxPoint wins outright regardless of margin; otherwise the player
// must reach RaceTo, with a 2-point margin when WinByTwo is set.
func DidWinGame(playerScore, opponentScore int, cfg GameConfig) bool {
	if playerScore >= cfg.MaxPoint {
		return true
	}
	if playerScore < cfg.RaceTo {
		return false
	}
	if cfg.WinByTwo && playerScore-opponentScore < 2 {
		return false
	}
	return true
}

// GamesNeeded returns the games required to win a best-of-n match
func GamesNeeded(bestOf int) int {
	return bestOf/2 + 1
}

// clampPoints keeps a point count within [0, maxPoint]
func clampPoints(v, maxPoint int) int {
	if v < 0 {
		return 0
	}
	if v > maxPoint {
		return maxPoint
	}
	return v
}

// normalizeRaceTo coerces a race-to value: anything below the minimum resets
// to the default, anything above the hard cap clamps to it
func normalizeRaceTo(v, maxPoint int) int {
	if v < domain.MinRaceTo {
		return domain.DefaultRaceTo
	}
	if v > maxPoint {
		return maxPoint
	}
	return v
}
