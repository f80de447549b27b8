package domain

import "time"

// MatchPlayerSummary is one player's line in a completed-match record
type MatchPlayerSummary struct {
	SlotID    SlotID `json:"slot_id"`
	Name      string `json:"name"`
	ProfileID string `json:"profile_id,omitempty"`
	Points    int    `json:"points"`
	Games     int    `json:"games"`
	WonMatch  bool   `json:"won_match"`
}

// CompletedMatchSummary is the immutable record written once at match-win.
// The collection is capped at HistoryCap entries, most recent first.
type CompletedMatchSummary struct {
	ID           string               `json:"id"`
	CompletedAt  time.Time            `json:"completed_at"`
	DurationMs   int64                `json:"duration_ms"`
	GamesPlayed  int                  `json:"games_played"`
	TotalRallies int                  `json:"total_rallies"`
	RaceTo       int                  `json:"race_to"`
	BestOf       int                  `json:"best_of"`
	WinByTwo     bool                 `json:"win_by_two"`
	DoublesMode  bool                 `json:"doubles_mode"`
	WinnerID     SlotID               `json:"winner_id"`
	WinnerName   string               `json:"winner_name"`
	Players      []MatchPlayerSummary `json:"players"`
}

// PlayerLine returns the summary line for a slot, or nil
func (s *CompletedMatchSummary) PlayerLine(id SlotID) *MatchPlayerSummary {
	for i := range s.Players {
		if s.Players[i].SlotID == id {
			return &s.Players[i]
		}
	}
	return nil
}
