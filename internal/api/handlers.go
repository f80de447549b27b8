package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ernie/courtside/internal/domain"
	"github.com/ernie/courtside/internal/scoreboard"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeActionError maps controller rejections onto HTTP statuses. Rejections
// are soft: 409 carries the transient notice text, nothing changed server-side.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoreboard.ErrMatchFinished),
		errors.Is(err, scoreboard.ErrNothingToUndo),
		errors.Is(err, scoreboard.ErrHistoryEmpty),
		errors.Is(err, scoreboard.ErrEmptyName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scoreboard.ErrUnknownSlot),
		errors.Is(err, scoreboard.ErrUnknownProfile):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeState responds with the current document and live elapsed time
func (r *Router) writeState(w http.ResponseWriter) {
	doc, elapsed := r.controller.Snapshot()
	writeJSON(w, http.StatusOK, domain.StateEvent{Match: doc, ElapsedMs: elapsed})
}

// handleGetMatch returns the live match document
func (r *Router) handleGetMatch(w http.ResponseWriter, req *http.Request) {
	r.writeState(w)
}

// handlePoint awards or corrects a rally
func (r *Router) handlePoint(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot  string `json:"slot"`
		Delta int    `json:"delta"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	delta := body.Delta
	if delta == 0 {
		delta = 1
	}

	if err := r.controller.ApplyPoint(slot, delta); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleUndo restores the document from before the most recent action
func (r *Router) handleUndo(w http.ResponseWriter, req *http.Request) {
	if err := r.controller.Undo(); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleResetGame zeroes both slots' points
func (r *Router) handleResetGame(w http.ResponseWriter, req *http.Request) {
	r.controller.ResetGamePoints()
	r.writeState(w)
}

// handleResetMatch returns to a fresh match with configuration preserved
func (r *Router) handleResetMatch(w http.ResponseWriter, req *http.Request) {
	r.controller.ResetMatch()
	r.writeState(w)
}

// handleSwapEnds reverses the court-end assignment
func (r *Router) handleSwapEnds(w http.ResponseWriter, req *http.Request) {
	r.controller.SwapEnds()
	r.writeState(w)
}

// handleServer sets the serving slot, or toggles it when no slot is given
func (r *Router) handleServer(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot string `json:"slot"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Slot == "" {
		r.controller.ToggleServer()
		r.writeState(w)
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	if err := r.controller.SetServer(slot); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleName renames a slot
func (r *Router) handleName(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot string `json:"slot"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	if err := r.controller.ChangeName(slot, body.Name); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleTeammateName renames one teammate of a slot
func (r *Router) handleTeammateName(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot       string `json:"slot"`
		TeammateID string `json:"teammate_id"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok || body.TeammateID == "" {
		writeError(w, http.StatusBadRequest, "invalid slot or teammate")
		return
	}
	if err := r.controller.ChangeTeammateName(slot, body.TeammateID, body.Name); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleSetScores overwrites both point values (manual/coach entry)
func (r *Router) handleSetScores(w http.ResponseWriter, req *http.Request) {
	var body struct {
		PlayerA int `json:"player_a"`
		PlayerB int `json:"player_b"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := r.controller.SetScores(body.PlayerA, body.PlayerB); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleSwapTeammates exchanges a slot's teammate order
func (r *Router) handleSwapTeammates(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot string `json:"slot"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}
	if err := r.controller.SwapTeammates(slot); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleSettings applies a partial settings update
func (r *Router) handleSettings(w http.ResponseWriter, req *http.Request) {
	var body struct {
		RaceTo      *int  `json:"race_to"`
		BestOf      *int  `json:"best_of"`
		WinByTwo    *bool `json:"win_by_two"`
		DoublesMode *bool `json:"doubles_mode"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.RaceTo != nil {
		r.controller.ChangeRaceTo(*body.RaceTo)
	}
	if body.BestOf != nil {
		r.controller.ChangeBestOf(*body.BestOf)
	}
	if body.WinByTwo != nil {
		r.controller.SetWinByTwo(*body.WinByTwo)
	}
	if body.DoublesMode != nil {
		r.controller.SetDoublesMode(*body.DoublesMode)
	}
	r.writeState(w)
}

// handleClock pauses or resumes the match clock
func (r *Router) handleClock(w http.ResponseWriter, req *http.Request) {
	r.controller.ToggleClock()
	r.writeState(w)
}

// handleClearGames empties the live document's completed-games list
func (r *Router) handleClearGames(w http.ResponseWriter, req *http.Request) {
	if err := r.controller.ClearGameHistory(); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleSaveProfile saves a slot's (or teammate's) current name into the registry
func (r *Router) handleSaveProfile(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot       string `json:"slot"`
		TeammateID string `json:"teammate_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slot")
		return
	}

	var err error
	if body.TeammateID != "" {
		err = r.controller.SaveTeammateName(slot, body.TeammateID)
	} else {
		err = r.controller.SaveCurrentName(slot)
	}
	if err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleApplyProfile sets a slot's name from a saved profile
func (r *Router) handleApplyProfile(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Slot      string `json:"slot"`
		ProfileID string `json:"profile_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	slot, ok := parseSlot(body.Slot)
	if !ok || body.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "invalid slot or profile")
		return
	}
	if err := r.controller.ApplySavedProfile(slot, body.ProfileID); err != nil {
		writeActionError(w, err)
		return
	}
	r.writeState(w)
}

// handleGetHistory returns completed-match summaries, most recent first
func (r *Router) handleGetHistory(w http.ResponseWriter, req *http.Request) {
	limit := parseLimit(req, domain.HistoryCap, domain.HistoryCap)

	matches, err := r.store.GetCompletedMatches(req.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matches == nil {
		matches = []domain.CompletedMatchSummary{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleClearHistory erases the completed-match history
func (r *Router) handleClearHistory(w http.ResponseWriter, req *http.Request) {
	count, err := r.store.CountCompletedMatches(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if count == 0 {
		writeError(w, http.StatusConflict, "match history is already empty")
		return
	}

	if err := r.store.ClearCompletedMatches(req.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": count})
}

// handleGetStats returns the aggregated statistics report
func (r *Router) handleGetStats(w http.ResponseWriter, req *http.Request) {
	matches, err := r.store.GetCompletedMatches(req.Context(), domain.HistoryCap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scoreboard.BuildStats(matches))
}

// handleHeadToHead returns win counts between two players
func (r *Router) handleHeadToHead(w http.ResponseWriter, req *http.Request) {
	keyA := req.URL.Query().Get("a")
	keyB := req.URL.Query().Get("b")
	if keyA == "" || keyB == "" {
		writeError(w, http.StatusBadRequest, "both a and b player keys are required")
		return
	}

	matches, err := r.store.GetCompletedMatches(req.Context(), domain.HistoryCap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scoreboard.HeadToHead(matches, keyA, keyB))
}

// handleMomentum returns a player's recent win/loss run
func (r *Router) handleMomentum(w http.ResponseWriter, req *http.Request) {
	key := req.URL.Query().Get("player")
	if key == "" {
		writeError(w, http.StatusBadRequest, "player key is required")
		return
	}

	matches, err := r.store.GetCompletedMatches(req.Context(), domain.HistoryCap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scoreboard.Momentum(matches, key))
}

// handleHealth returns a simple health check response
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
