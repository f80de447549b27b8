package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ernie/courtside/internal/domain"
)

// scanner is an interface satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanCompletedMatch scans a completed-match row, decoding the players JSON column
func scanCompletedMatch(s scanner) (*domain.CompletedMatchSummary, error) {
	var m domain.CompletedMatchSummary
	var completedAt, winnerID, players string

	err := s.Scan(&m.ID, &completedAt, &m.DurationMs, &m.GamesPlayed, &m.TotalRallies,
		&m.RaceTo, &m.BestOf, &m.WinByTwo, &m.DoublesMode, &winnerID, &m.WinnerName, &players)
	if err != nil {
		return nil, err
	}

	m.CompletedAt, err = time.Parse(time.RFC3339, completedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing completed_at: %w", err)
	}
	m.WinnerID = domain.SlotID(winnerID)

	if err := json.Unmarshal([]byte(players), &m.Players); err != nil {
		return nil, fmt.Errorf("decoding player summaries: %w", err)
	}

	return &m, nil
}
