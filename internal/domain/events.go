package domain

import "time"

// Event types for WebSocket notifications
const (
	EventState      = "state"
	EventPoint      = "point"
	EventGameWon    = "game_won"
	EventMatchWon   = "match_won"
	EventMatchReset = "match_reset"
	EventNotice     = "notice"
)

// Notice levels
const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeSuccess = "success"
)

// Event represents a real-time event for WebSocket broadcast
type Event struct {
	Type      string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// PointEvent is sent when a rally is scored or corrected
type PointEvent struct {
	Slot   SlotID `json:"slot"`
	Delta  int    `json:"delta"`
	Points int    `json:"points"`
	Server SlotID `json:"server"`
}

// GameWonEvent is sent when a game completes
type GameWonEvent struct {
	Game       CompletedGame  `json:"game"`
	Games      map[SlotID]int `json:"games"`
	WinnerName string         `json:"winner_name"`
}

// MatchWonEvent is sent when a match completes
type MatchWonEvent struct {
	Summary CompletedMatchSummary `json:"summary"`
}

// NoticeEvent carries a transient user-visible message
type NoticeEvent struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StateEvent carries the full document after a mutation so displays never
// have to diff
type StateEvent struct {
	Match     *MatchDocument `json:"match"`
	ElapsedMs int64          `json:"elapsed_ms"`
}
