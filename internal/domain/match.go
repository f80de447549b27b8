package domain

import "time"

// SlotID identifies one of the two fixed player/team positions in a match.
type SlotID string

const (
	SlotA SlotID = "playerA"
	SlotB SlotID = "playerB"
)

// Scoring defaults and caps
const (
	MinRaceTo       = 11
	DefaultRaceTo   = 21
	DefaultMaxPoint = 30
	DefaultBestOf   = 3

	CompletedGamesCap = 20
	SavedNamesCap     = 12
	HistoryCap        = 50
)

// AllowedBestOf lists the valid match lengths (odd, games-needed = ceil(n/2))
var AllowedBestOf = []int{1, 3, 5, 7}

// ValidBestOf reports whether n is an allowed best-of value
func ValidBestOf(n int) bool {
	for _, v := range AllowedBestOf {
		if v == n {
			return true
		}
	}
	return false
}

// DefaultName returns the fallback display name for a slot
func DefaultName(id SlotID) string {
	if id == SlotB {
		return "Player B"
	}
	return "Player A"
}

// Teammate is one of the two named sub-entities of a slot, used in doubles mode
type Teammate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerSlot is one of the two fixed player/team positions
type PlayerSlot struct {
	ID        SlotID     `json:"id"`
	Name      string     `json:"name"`
	Points    int        `json:"points"`
	Games     int        `json:"games"`
	Teammates []Teammate `json:"teammates"`
	ProfileID string     `json:"profile_id,omitempty"` // weak link to a saved-name profile
}

// CompletedGame is an immutable snapshot taken the instant a game is won
type CompletedGame struct {
	ID          string         `json:"id"`
	Sequence    int            `json:"sequence"`
	CompletedAt time.Time      `json:"completed_at"`
	Winner      SlotID         `json:"winner"`
	Scores      map[SlotID]int `json:"scores"`
	DurationMs  int64          `json:"duration_ms"`
}

// MatchDocument is the live match state. Exactly one instance exists, owned
// by the scoreboard controller and persisted after every mutation.
type MatchDocument struct {
	Players        []PlayerSlot      `json:"players"` // order encodes court ends
	RaceTo         int               `json:"race_to"`
	MaxPoint       int               `json:"max_point"`
	WinByTwo       bool              `json:"win_by_two"`
	BestOf         int               `json:"best_of"`
	Server         SlotID            `json:"server"`
	MatchWinner    *SlotID           `json:"match_winner,omitempty"`
	CompletedGames []CompletedGame   `json:"completed_games"` // most recent first
	ClockRunning   bool              `json:"clock_running"`
	ClockStartedAt *time.Time        `json:"clock_started_at,omitempty"`
	ClockElapsedMs int64             `json:"clock_elapsed_ms"`
	SavedNames     []PlayerProfile   `json:"saved_names"` // most recently used first
	DoublesMode    bool              `json:"doubles_mode"`
	TeammateServer map[SlotID]string `json:"teammate_server_map"` // slot -> teammate id on serve
	LastUpdated    time.Time         `json:"last_updated"`
}

// Slot returns the slot with the given id, or nil
func (d *MatchDocument) Slot(id SlotID) *PlayerSlot {
	for i := range d.Players {
		if d.Players[i].ID == id {
			return &d.Players[i]
		}
	}
	return nil
}

// Opponent returns the other slot's id
func Opponent(id SlotID) SlotID {
	if id == SlotA {
		return SlotB
	}
	return SlotA
}

// Clone returns a deep copy of the document, used for undo snapshots
func (d *MatchDocument) Clone() *MatchDocument {
	c := *d

	c.Players = make([]PlayerSlot, len(d.Players))
	copy(c.Players, d.Players)
	for i := range c.Players {
		c.Players[i].Teammates = append([]Teammate(nil), d.Players[i].Teammates...)
	}

	if d.MatchWinner != nil {
		w := *d.MatchWinner
		c.MatchWinner = &w
	}
	if d.ClockStartedAt != nil {
		t := *d.ClockStartedAt
		c.ClockStartedAt = &t
	}

	c.CompletedGames = make([]CompletedGame, len(d.CompletedGames))
	copy(c.CompletedGames, d.CompletedGames)
	for i := range c.CompletedGames {
		scores := make(map[SlotID]int, len(d.CompletedGames[i].Scores))
		for k, v := range d.CompletedGames[i].Scores {
			scores[k] = v
		}
		c.CompletedGames[i].Scores = scores
	}

	c.SavedNames = append([]PlayerProfile(nil), d.SavedNames...)

	c.TeammateServer = make(map[SlotID]string, len(d.TeammateServer))
	for k, v := range d.TeammateServer {
		c.TeammateServer[k] = v
	}

	return &c
}
