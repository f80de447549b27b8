package scoreboard

import (
	"time"

	"github.com/ernie/courtside/internal/domain"
)

// buildMatchSummary aggregates the finished match's completed games into its
// permanent record. Called at the instant of match-win, after the final game
// has been prepended and the winner's games incremented.
func buildMatchSummary(d *domain.MatchDocument, winner domain.SlotID, durationMs int64, now time.Time) domain.CompletedMatchSummary {
	points := map[domain.SlotID]int{}
	totalRallies := 0
	for _, g := range d.CompletedGames {
		for slot, score := range g.Scores {
			points[slot] += score
			totalRallies += score
		}
	}

	players := make([]domain.MatchPlayerSummary, 0, len(d.Players))
	for _, p := range d.Players {
		players = append(players, domain.MatchPlayerSummary{
			SlotID:    p.ID,
			Name:      p.Name,
			ProfileID: p.ProfileID,
			Points:    points[p.ID],
			Games:     p.Games,
			WonMatch:  p.ID == winner,
		})
	}

	winnerName := ""
	if w := d.Slot(winner); w != nil {
		winnerName = w.Name
	}

	return domain.CompletedMatchSummary{
		ID:           newID(),
		CompletedAt:  now,
		DurationMs:   durationMs,
		GamesPlayed:  len(d.CompletedGames),
		TotalRallies: totalRallies,
		RaceTo:       d.RaceTo,
		BestOf:       d.BestOf,
		WinByTwo:     d.WinByTwo,
		DoublesMode:  d.DoublesMode,
		WinnerID:     winner,
		WinnerName:   winnerName,
		Players:      players,
	}
}
