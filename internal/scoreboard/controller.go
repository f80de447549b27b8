package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ernie/courtside/internal/domain"
	"github.com/ernie/courtside/internal/storage"
)

// Rejection sentinels. These map to transient user-visible notices; none of
// them leaves the document changed.
var (
	ErrMatchFinished  = errors.New("match already decided")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrHistoryEmpty   = errors.New("no completed games to clear")
	ErrEmptyName      = errors.New("name is empty")
	ErrUnknownSlot    = errors.New("unknown player slot")
	ErrUnknownProfile = errors.New("unknown profile")
)

const (
	undoDepth           = 50
	defaultPersistDelay = 150 * time.Millisecond
)

// Controller is the single authority over the live match document. Every
// player-initiated action runs to completion under one lock, checkpoints the
// prior document for undo, persists the result (debounced) and emits events
// for the WebSocket hub.
type Controller struct {
	store    *storage.Store
	defaults Defaults
	events   chan domain.Event
	now      func() time.Time

	mu   sync.Mutex
	doc  *domain.MatchDocument
	undo []*domain.MatchDocument

	persistMu    sync.Mutex
	persistTimer *time.Timer
	pending      *domain.MatchDocument
	persistDelay time.Duration
	closed       bool
}

// New loads the stored match document (sanitizing it) or starts a fresh one,
// and returns a ready controller. persistDelay is the debounce window for
// live-document writes; zero means the default.
func New(ctx context.Context, store *storage.Store, defaults Defaults, persistDelay time.Duration) (*Controller, error) {
	if persistDelay <= 0 {
		persistDelay = defaultPersistDelay
	}
	c := &Controller{
		store:        store,
		defaults:     defaults.normalized(),
		events:       make(chan domain.Event, 100),
		now:          time.Now,
		persistDelay: persistDelay,
	}

	data, err := store.LoadMatchDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading match document: %w", err)
	}

	now := c.now()
	if data == nil {
		c.doc = DefaultDocument(c.defaults, now)
	} else {
		doc, err := ParseDocument(data, c.defaults, now)
		if err != nil {
			log.Printf("Stored match document unusable (%v), starting fresh", err)
			doc = DefaultDocument(c.defaults, now)
		}
		c.doc = doc
	}

	return c, nil
}

// Events returns the event channel for WebSocket broadcasting
func (c *Controller) Events() <-chan domain.Event {
	return c.events
}

// Close flushes any pending persistence write so a newer in-memory document
// is never lost to the debounce window at shutdown
func (c *Controller) Close() {
	c.persistMu.Lock()
	if c.persistTimer != nil {
		c.persistTimer.Stop()
		c.persistTimer = nil
	}
	pending := c.pending
	c.pending = nil
	c.closed = true
	c.persistMu.Unlock()

	if pending != nil {
		c.writeDocument(pending)
	}
}

// Snapshot returns a deep copy of the current document and the live elapsed
// clock time in milliseconds
func (c *Controller) Snapshot() (*domain.MatchDocument, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone(), clockElapsed(c.doc, c.now())
}

// --- scoring ---

// ApplyPoint awards (delta > 0) or corrects (delta < 0) a rally for a slot.
// Positive deltas are rejected once the match is decided; negative deltas
// stay allowed so a mistaken final point can still be taken back.
func (c *Controller) ApplyPoint(slot domain.SlotID, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}
	if delta > 0 && c.doc.MatchWinner != nil {
		c.notice(domain.NoticeWarning, "Match is already finished")
		return ErrMatchFinished
	}

	now := c.now()
	c.checkpoint()

	ps.Points = clampPoints(ps.Points+delta, c.doc.MaxPoint)

	if delta > 0 {
		// Rally-point scoring: service goes to whoever won the rally
		prevServer := c.doc.Server
		c.doc.Server = slot
		rotateOnScore(c.doc, slot, prevServer)

		c.emit(domain.EventPoint, domain.PointEvent{
			Slot:   slot,
			Delta:  delta,
			Points: ps.Points,
			Server: c.doc.Server,
		})

		opp := c.doc.Slot(domain.Opponent(slot))
		cfg := GameConfig{RaceTo: c.doc.RaceTo, MaxPoint: c.doc.MaxPoint, WinByTwo: c.doc.WinByTwo}
		if DidWinGame(ps.Points, opp.Points, cfg) {
			c.finishGame(slot, now)
		}
	} else {
		c.emit(domain.EventPoint, domain.PointEvent{
			Slot:   slot,
			Delta:  delta,
			Points: ps.Points,
			Server: c.doc.Server,
		})
	}

	c.touch(now)
	return nil
}

// finishGame snapshots the completed game and, when the winner has enough
// games, completes the match. Caller holds the lock.
func (c *Controller) finishGame(winner domain.SlotID, now time.Time) {
	elapsed := clockElapsed(c.doc, now)

	scores := make(map[domain.SlotID]int, len(c.doc.Players))
	for _, p := range c.doc.Players {
		scores[p.ID] = p.Points
	}

	game := domain.CompletedGame{
		ID:          newID(),
		Sequence:    len(c.doc.CompletedGames) + 1,
		CompletedAt: now,
		Winner:      winner,
		Scores:      scores,
		DurationMs:  elapsed,
	}
	c.doc.CompletedGames = append([]domain.CompletedGame{game}, c.doc.CompletedGames...)
	if len(c.doc.CompletedGames) > domain.CompletedGamesCap {
		c.doc.CompletedGames = c.doc.CompletedGames[:domain.CompletedGamesCap]
	}

	for i := range c.doc.Players {
		c.doc.Players[i].Points = 0
	}
	ws := c.doc.Slot(winner)
	ws.Games++

	games := make(map[domain.SlotID]int, len(c.doc.Players))
	for _, p := range c.doc.Players {
		games[p.ID] = p.Games
	}

	if ws.Games >= GamesNeeded(c.doc.BestOf) {
		c.finishMatch(winner, elapsed, now)
		return
	}

	c.emit(domain.EventGameWon, domain.GameWonEvent{
		Game:       game,
		Games:      games,
		WinnerName: ws.Name,
	})
}

// finishMatch marks the winner, freezes the clock and writes the permanent
// match summary. Caller holds the lock.
func (c *Controller) finishMatch(winner domain.SlotID, elapsedMs int64, now time.Time) {
	w := winner
	c.doc.MatchWinner = &w
	stopClock(c.doc)

	summary := buildMatchSummary(c.doc, winner, elapsedMs, now)
	if err := c.store.AppendCompletedMatch(context.Background(), summary); err != nil {
		// In-memory state stays authoritative; losing the write is accepted
		log.Printf("Failed to persist match summary: %v", err)
	}

	c.emit(domain.EventMatchWon, domain.MatchWonEvent{Summary: summary})
}

// --- undo ---

// Undo restores the document snapshot taken before the most recent action
func (c *Controller) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.undo) == 0 {
		c.notice(domain.NoticeInfo, "Nothing to undo")
		return ErrNothingToUndo
	}

	c.doc = c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	c.touch(c.now())
	return nil
}

// --- names and profiles ---

// ChangeName renames a slot. Blank input falls back to the slot's default
// name; hand-editing always breaks the saved-profile link.
func (c *Controller) ChangeName(slot domain.SlotID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}

	c.checkpoint()
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultName(slot)
	}
	ps.Name = name
	ps.ProfileID = ""
	c.touch(c.now())
	return nil
}

// ChangeTeammateName renames one teammate of a slot
func (c *Controller) ChangeTeammateName(slot domain.SlotID, teammateID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}
	for i := range ps.Teammates {
		if ps.Teammates[i].ID == teammateID {
			c.checkpoint()
			name = strings.TrimSpace(name)
			if name == "" {
				name = defaultTeammates(slot)[i%2].Name
			}
			ps.Teammates[i].Name = name
			c.touch(c.now())
			return nil
		}
	}
	return ErrUnknownSlot
}

// SaveCurrentName upserts the slot's current name into the saved-name registry
func (c *Controller) SaveCurrentName(slot domain.SlotID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}
	label := strings.TrimSpace(ps.Name)
	if label == "" {
		c.notice(domain.NoticeWarning, "Cannot save an empty name")
		return ErrEmptyName
	}

	c.checkpoint()
	upsertProfile(c.doc, label)
	c.notice(domain.NoticeSuccess, fmt.Sprintf("Saved name %q", label))
	c.touch(c.now())
	return nil
}

// SaveTeammateName upserts a teammate's current name into the registry
func (c *Controller) SaveTeammateName(slot domain.SlotID, teammateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}
	for _, tm := range ps.Teammates {
		if tm.ID == teammateID {
			label := strings.TrimSpace(tm.Name)
			if label == "" {
				c.notice(domain.NoticeWarning, "Cannot save an empty name")
				return ErrEmptyName
			}
			c.checkpoint()
			upsertProfile(c.doc, label)
			c.notice(domain.NoticeSuccess, fmt.Sprintf("Saved name %q", label))
			c.touch(c.now())
			return nil
		}
	}
	return ErrUnknownSlot
}

// ApplySavedProfile sets a slot's name from a registry entry and links it
func (c *Controller) ApplySavedProfile(slot domain.SlotID, profileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.doc.Slot(slot)
	if ps == nil {
		return ErrUnknownSlot
	}
	profile := findProfile(c.doc, profileID)
	if profile == nil {
		return ErrUnknownProfile
	}

	c.checkpoint()
	ps.Name = profile.Label
	ps.ProfileID = profile.ID
	promoteProfile(c.doc, profile.ID)
	c.touch(c.now())
	return nil
}

// --- resets and direct edits ---

// SetScores overwrites both slots' point values in one atomic update.
// Manual entry bypasses the rally-by-rally path, so no game-completion
// logic runs here.
func (c *Controller) SetScores(pointsA, pointsB int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc.Slot(domain.SlotA).Points = clampPoints(pointsA, c.doc.MaxPoint)
	c.doc.Slot(domain.SlotB).Points = clampPoints(pointsB, c.doc.MaxPoint)
	c.touch(c.now())
	return nil
}

// ResetGamePoints zeroes both slots' points; games, server, history and
// clock are untouched
func (c *Controller) ResetGamePoints() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	for i := range c.doc.Players {
		c.doc.Players[i].Points = 0
	}
	c.touch(c.now())
}

// ResetMatch returns to a fresh in-progress document, preserving the
// configuration fields
func (c *Controller) ResetMatch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.checkpoint()

	for i := range c.doc.Players {
		c.doc.Players[i].Points = 0
		c.doc.Players[i].Games = 0
	}
	c.doc.MatchWinner = nil
	c.doc.Server = c.doc.Players[0].ID
	c.doc.CompletedGames = []domain.CompletedGame{}
	c.doc.TeammateServer = map[domain.SlotID]string{}
	restartClock(c.doc, now)

	c.emit(domain.EventMatchReset, nil)
	c.touch(now)
}

// SwapEnds reverses the players array (court-end assignment); server and
// scores are unchanged
func (c *Controller) SwapEnds() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	for i, j := 0, len(c.doc.Players)-1; i < j; i, j = i+1, j-1 {
		c.doc.Players[i], c.doc.Players[j] = c.doc.Players[j], c.doc.Players[i]
	}
	c.touch(c.now())
}

// ToggleServer hands the serve to the other slot without scoring side effects
func (c *Controller) ToggleServer() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc.Server = domain.Opponent(c.doc.Server)
	c.touch(c.now())
}

// SetServer assigns the serve directly
func (c *Controller) SetServer(slot domain.SlotID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc.Slot(slot) == nil {
		return ErrUnknownSlot
	}
	c.checkpoint()
	c.doc.Server = slot
	c.touch(c.now())
	return nil
}

// SwapTeammates exchanges a slot's teammate order and repoints its on-serve
// teammate at the new first teammate
func (c *Controller) SwapTeammates(slot domain.SlotID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc.Slot(slot) == nil {
		return ErrUnknownSlot
	}
	c.checkpoint()
	swapTeammateOrder(c.doc, slot)
	c.touch(c.now())
	return nil
}

// --- settings ---

// ChangeRaceTo updates the points needed to win a game. Values below the
// minimum reset to the default; values above the hard cap clamp to it.
func (c *Controller) ChangeRaceTo(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc.RaceTo = normalizeRaceTo(value, c.doc.MaxPoint)
	c.touch(c.now())
}

// ChangeBestOf updates the match length. Slots already past the new
// games-needed are clamped down, and if clamping leaves a slot at the
// threshold it becomes the match winner immediately.
func (c *Controller) ChangeBestOf(value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	if !domain.ValidBestOf(value) {
		value = c.defaults.BestOf
	}
	c.doc.BestOf = value

	needed := GamesNeeded(value)
	for i := range c.doc.Players {
		if c.doc.Players[i].Games > needed {
			c.doc.Players[i].Games = needed
		}
	}
	if c.doc.MatchWinner == nil {
		for i := range c.doc.Players {
			if c.doc.Players[i].Games >= needed {
				// Retroactive win when shortening the match
				w := c.doc.Players[i].ID
				c.doc.MatchWinner = &w
				stopClock(c.doc)
				c.notice(domain.NoticeInfo, fmt.Sprintf("%s wins the shortened match", c.doc.Players[i].Name))
				break
			}
		}
	}
	c.touch(c.now())
}

// SetWinByTwo flips the 2-point-margin requirement
func (c *Controller) SetWinByTwo(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc.WinByTwo = enabled
	c.touch(c.now())
}

// SetDoublesMode flips doubles mode; rotation bookkeeping is maintained
// either way, this only changes what future points compute
func (c *Controller) SetDoublesMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc.DoublesMode = enabled
	c.touch(c.now())
}

// --- clock and history ---

// ToggleClock pauses or resumes the match clock
func (c *Controller) ToggleClock() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	toggleClock(c.doc, c.now())
	c.touch(c.now())
}

// ClearGameHistory empties the completed-games list of the live document
func (c *Controller) ClearGameHistory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.doc.CompletedGames) == 0 {
		c.notice(domain.NoticeInfo, "No completed games to clear")
		return ErrHistoryEmpty
	}
	c.checkpoint()
	c.doc.CompletedGames = []domain.CompletedGame{}
	c.touch(c.now())
	return nil
}

// Restore replaces the live document with an imported one (already
// sanitized) and persists it immediately
func (c *Controller) Restore(doc *domain.MatchDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checkpoint()
	c.doc = SanitizeDocument(doc.Clone(), c.defaults, c.now())
	c.doc.LastUpdated = c.now()
	c.writeDocument(c.doc.Clone())
	c.emitState()
}

// --- internals ---

// checkpoint pushes the current document onto the bounded undo stack.
// Caller holds the lock.
func (c *Controller) checkpoint() {
	c.undo = append(c.undo, c.doc.Clone())
	if len(c.undo) > undoDepth {
		c.undo = c.undo[1:]
	}
}

// touch stamps the mutation time, schedules a persistence write and
// broadcasts the new state. Caller holds the lock.
func (c *Controller) touch(now time.Time) {
	c.doc.LastUpdated = now
	c.schedulePersist(c.doc.Clone())
	c.emitState()
}

// schedulePersist coalesces rapid mutations into one storage write
func (c *Controller) schedulePersist(doc *domain.MatchDocument) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if c.closed {
		return
	}
	c.pending = doc
	if c.persistTimer != nil {
		c.persistTimer.Stop()
	}
	c.persistTimer = time.AfterFunc(c.persistDelay, c.flushPending)
}

func (c *Controller) flushPending() {
	c.persistMu.Lock()
	pending := c.pending
	c.pending = nil
	c.persistTimer = nil
	c.persistMu.Unlock()

	if pending != nil {
		c.writeDocument(pending)
	}
}

// Flush forces any pending persistence write through immediately
func (c *Controller) Flush() {
	c.persistMu.Lock()
	if c.persistTimer != nil {
		c.persistTimer.Stop()
		c.persistTimer = nil
	}
	c.persistMu.Unlock()
	c.flushPending()
}

func (c *Controller) writeDocument(doc *domain.MatchDocument) {
	if err := c.store.SaveMatchDocument(context.Background(), doc); err != nil {
		// Accepted data-loss-on-reload risk: the in-memory document stays
		// authoritative for the session
		log.Printf("Failed to persist match document: %v", err)
	}
}

// emitState broadcasts the full document. Caller holds the lock.
func (c *Controller) emitState() {
	c.emit(domain.EventState, domain.StateEvent{
		Match:     c.doc.Clone(),
		ElapsedMs: clockElapsed(c.doc, c.now()),
	})
}

func (c *Controller) notice(level, message string) {
	c.emit(domain.EventNotice, domain.NoticeEvent{Level: level, Message: message})
}

// emit sends without blocking; a full channel drops the event
func (c *Controller) emit(eventType string, data interface{}) {
	event := domain.Event{Type: eventType, Timestamp: c.now(), Data: data}
	select {
	case c.events <- event:
	default:
		log.Printf("Event channel full, dropping %s event", eventType)
	}
}
