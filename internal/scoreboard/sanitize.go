package scoreboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ernie/courtside/internal/domain"
)

// Defaults carries the configured match settings used when no stored
// document exists or a stored field is unusable
type Defaults struct {
	RaceTo      int
	BestOf      int
	WinByTwo    bool
	DoublesMode bool
}

func (d Defaults) normalized() Defaults {
	if d.RaceTo == 0 {
		d.RaceTo = domain.DefaultRaceTo
	}
	if !domain.ValidBestOf(d.BestOf) {
		d.BestOf = domain.DefaultBestOf
	}
	return d
}

// defaultTeammates returns the fixed pair for a slot
func defaultTeammates(id domain.SlotID) []domain.Teammate {
	prefix := "a"
	if id == domain.SlotB {
		prefix = "b"
	}
	return []domain.Teammate{
		{ID: prefix + "1", Name: "Player 1"},
		{ID: prefix + "2", Name: "Player 2"},
	}
}

// DefaultDocument builds a fresh in-progress match document
func DefaultDocument(defaults Defaults, now time.Time) *domain.MatchDocument {
	defaults = defaults.normalized()

	doc := &domain.MatchDocument{
		Players: []domain.PlayerSlot{
			{ID: domain.SlotA, Name: domain.DefaultName(domain.SlotA), Teammates: defaultTeammates(domain.SlotA)},
			{ID: domain.SlotB, Name: domain.DefaultName(domain.SlotB), Teammates: defaultTeammates(domain.SlotB)},
		},
		RaceTo:         defaults.RaceTo,
		MaxPoint:       domain.DefaultMaxPoint,
		WinByTwo:       defaults.WinByTwo,
		BestOf:         defaults.BestOf,
		Server:         domain.SlotA,
		CompletedGames: []domain.CompletedGame{},
		SavedNames:     []domain.PlayerProfile{},
		DoublesMode:    defaults.DoublesMode,
		TeammateServer: map[domain.SlotID]string{},
		LastUpdated:    now,
	}
	restartClock(doc, now)
	return doc
}

// ParseDocument decodes a stored live-match document and repairs it
// field-by-field. It fails only when the payload is unusable outright
// (invalid JSON, or not an object at the top level); the caller then falls
// back to DefaultDocument. Partial type mismatches inside the object are
// tolerated: the affected fields decode to their zero values and the
// sanitizer restores them.
func ParseDocument(data []byte, defaults Defaults, now time.Time) (*domain.MatchDocument, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	var doc domain.MatchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		// A mistyped field inside the object: keep what decoded cleanly
	}

	return SanitizeDocument(&doc, defaults, now), nil
}

// SanitizeDocument fixes up a decoded document into a valid shape, applying
// defaults for anything missing or out of range
func SanitizeDocument(doc *domain.MatchDocument, defaults Defaults, now time.Time) *domain.MatchDocument {
	defaults = defaults.normalized()

	if doc.MaxPoint < domain.MinRaceTo {
		doc.MaxPoint = domain.DefaultMaxPoint
	}
	doc.RaceTo = normalizeRaceTo(doc.RaceTo, doc.MaxPoint)
	if !domain.ValidBestOf(doc.BestOf) {
		doc.BestOf = defaults.BestOf
	}

	doc.Players = sanitizePlayers(doc.Players, doc.MaxPoint)

	if doc.Server != domain.SlotA && doc.Server != domain.SlotB {
		doc.Server = domain.SlotA
	}
	if doc.MatchWinner != nil && *doc.MatchWinner != domain.SlotA && *doc.MatchWinner != domain.SlotB {
		doc.MatchWinner = nil
	}

	doc.CompletedGames = sanitizeCompletedGames(doc.CompletedGames)
	doc.SavedNames = sanitizeSavedNames(doc.SavedNames)
	doc.TeammateServer = sanitizeTeammateServer(doc.TeammateServer, doc.Players)

	if doc.ClockElapsedMs < 0 {
		doc.ClockElapsedMs = 0
	}
	if doc.ClockRunning && doc.ClockStartedAt == nil {
		// Stored mid-run without a start timestamp: backfill to now
		t := now
		doc.ClockStartedAt = &t
	}
	if !doc.ClockRunning {
		doc.ClockStartedAt = nil
	}

	if doc.LastUpdated.IsZero() {
		doc.LastUpdated = now
	}

	return doc
}

// sanitizePlayers rebuilds the fixed two-slot array, carrying over whatever
// stored per-slot data is usable
func sanitizePlayers(stored []domain.PlayerSlot, maxPoint int) []domain.PlayerSlot {
	players := make([]domain.PlayerSlot, 0, 2)
	seen := map[domain.SlotID]bool{}

	for _, p := range stored {
		if p.ID != domain.SlotA && p.ID != domain.SlotB {
			continue
		}
		if seen[p.ID] || len(players) == 2 {
			continue
		}
		seen[p.ID] = true
		players = append(players, sanitizeSlot(p, maxPoint))
	}

	// Any slot the stored data lost comes back as a default
	for _, id := range []domain.SlotID{domain.SlotA, domain.SlotB} {
		if !seen[id] {
			players = append(players, domain.PlayerSlot{
				ID:        id,
				Name:      domain.DefaultName(id),
				Teammates: defaultTeammates(id),
			})
		}
	}
	return players
}

func sanitizeSlot(p domain.PlayerSlot, maxPoint int) domain.PlayerSlot {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = domain.DefaultName(p.ID)
	}
	p.Points = clampPoints(p.Points, maxPoint)
	if p.Games < 0 {
		p.Games = 0
	}

	fallback := defaultTeammates(p.ID)
	teammates := make([]domain.Teammate, 0, 2)
	for _, tm := range p.Teammates {
		if tm.ID == "" || len(teammates) == 2 {
			continue
		}
		if strings.TrimSpace(tm.Name) == "" {
			tm.Name = fallback[len(teammates)].Name
		}
		teammates = append(teammates, tm)
	}
	for len(teammates) < 2 {
		teammates = append(teammates, fallback[len(teammates)])
	}
	p.Teammates = teammates
	return p
}

func sanitizeCompletedGames(games []domain.CompletedGame) []domain.CompletedGame {
	out := make([]domain.CompletedGame, 0, len(games))
	for _, g := range games {
		if g.ID == "" || (g.Winner != domain.SlotA && g.Winner != domain.SlotB) {
			continue
		}
		if g.Scores == nil {
			continue
		}
		if g.DurationMs < 0 {
			g.DurationMs = 0
		}
		out = append(out, g)
		if len(out) == domain.CompletedGamesCap {
			break
		}
	}
	return out
}

func sanitizeSavedNames(profiles []domain.PlayerProfile) []domain.PlayerProfile {
	out := make([]domain.PlayerProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == "" || strings.TrimSpace(p.Label) == "" {
			continue
		}
		if p.Color == "" {
			p.Color = domain.ProfilePalette[len(out)%len(domain.ProfilePalette)]
		}
		out = append(out, p)
		if len(out) == domain.SavedNamesCap {
			break
		}
	}
	return out
}

func sanitizeTeammateServer(m map[domain.SlotID]string, players []domain.PlayerSlot) map[domain.SlotID]string {
	out := map[domain.SlotID]string{}
	for _, p := range players {
		id := m[p.ID]
		if id == "" {
			continue
		}
		for _, tm := range p.Teammates {
			if tm.ID == id {
				out[p.ID] = id
				break
			}
		}
	}
	return out
}
