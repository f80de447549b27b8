package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernie/courtside/internal/domain"
	"github.com/ernie/courtside/internal/scoreboard"
	"github.com/ernie/courtside/internal/storage"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	controller, err := scoreboard.New(context.Background(), store,
		scoreboard.Defaults{RaceTo: 21, BestOf: 3, WinByTwo: true}, time.Minute)
	require.NoError(t, err)
	t.Cleanup(controller.Close)

	return NewRouter(store, controller, "")
}

// do sends a request with an optional JSON body and returns the recorder
func do(t *testing.T, r *Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) domain.StateEvent {
	t.Helper()
	var state domain.StateEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.Match)
	return state
}

// finishMatch drives the live match to completion through the API
func finishMatch(t *testing.T, r *Router) {
	t.Helper()
	one := 1
	require.Equal(t, http.StatusOK, do(t, r, "POST", "/api/match/settings", map[string]*int{"best_of": &one}).Code)
	require.Equal(t, http.StatusOK, do(t, r, "POST", "/api/match/scores", map[string]int{"player_a": 20, "player_b": 0}).Code)
	require.Equal(t, http.StatusOK, do(t, r, "POST", "/api/match/point", map[string]string{"slot": "playerA"}).Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, "OPTIONS", "/api/match", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetMatch(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "GET", "/api/match", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Len(t, state.Match.Players, 2)
	assert.Equal(t, 21, state.Match.RaceTo)
}

func TestPointDefaultsToOne(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "POST", "/api/match/point", map[string]string{"slot": "playerB"})
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, 1, state.Match.Slot(domain.SlotB).Points)
	assert.Equal(t, domain.SlotB, state.Match.Server)
}

func TestPointInvalidSlot(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, "POST", "/api/match/point", map[string]string{"slot": "referee"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointAfterMatchFinished(t *testing.T) {
	r := newTestRouter(t)
	finishMatch(t, r)

	rec := do(t, r, "POST", "/api/match/point", map[string]string{"slot": "playerB"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Negative corrections still pass
	rec = do(t, r, "POST", "/api/match/point", map[string]interface{}{"slot": "playerA", "delta": -1})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUndoEmpty(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, "POST", "/api/match/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUndoAfterPoint(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, "POST", "/api/match/point", map[string]string{"slot": "playerA"})
	rec := do(t, r, "POST", "/api/match/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, 0, state.Match.Slot(domain.SlotA).Points)
}

func TestServerToggleAndSet(t *testing.T) {
	r := newTestRouter(t)

	// Empty body toggles
	rec := do(t, r, "POST", "/api/match/server", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SlotB, decodeState(t, rec).Match.Server)

	// Explicit slot sets
	rec = do(t, r, "POST", "/api/match/server", map[string]string{"slot": "playerA"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SlotA, decodeState(t, rec).Match.Server)
}

func TestNameAndProfiles(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "POST", "/api/match/name", map[string]string{"slot": "playerA", "name": "Sam"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sam", decodeState(t, rec).Match.Slot(domain.SlotA).Name)

	rec = do(t, r, "POST", "/api/profiles/save", map[string]string{"slot": "playerA"})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	require.Len(t, state.Match.SavedNames, 1)
	profileID := state.Match.SavedNames[0].ID

	rec = do(t, r, "POST", "/api/profiles/apply", map[string]string{"slot": "playerB", "profile_id": profileID})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeState(t, rec)
	assert.Equal(t, "Sam", state.Match.Slot(domain.SlotB).Name)
	assert.Equal(t, profileID, state.Match.Slot(domain.SlotB).ProfileID)

	rec = do(t, r, "POST", "/api/profiles/apply", map[string]string{"slot": "playerB", "profile_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsPartialUpdate(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "POST", "/api/match/settings", map[string]interface{}{"race_to": 15, "doubles_mode": true})
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, 15, state.Match.RaceTo)
	assert.True(t, state.Match.DoublesMode)
	// Untouched fields keep their values
	assert.Equal(t, 3, state.Match.BestOf)
	assert.True(t, state.Match.WinByTwo)
}

func TestHistoryLifecycle(t *testing.T) {
	r := newTestRouter(t)

	// Empty to start
	rec := do(t, r, "GET", "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, r, "DELETE", "/api/history", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	finishMatch(t, r)

	rec = do(t, r, "GET", "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []domain.CompletedMatchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, domain.SlotA, matches[0].WinnerID)

	rec = do(t, r, "DELETE", "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, "GET", "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	assert.Empty(t, matches)
}

func TestStatsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report scoreboard.StatsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Zero(t, report.SampleSize)
}

func TestHeadToHeadRequiresKeys(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "GET", "/api/stats/head-to-head?a=sam", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, "GET", "/api/stats/head-to-head?a=sam&b=alex", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMomentumRequiresPlayer(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "GET", "/api/stats/momentum", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, "GET", "/api/stats/momentum?player=sam", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClockToggle(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "POST", "/api/match/clock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeState(t, rec).Match.ClockRunning)

	rec = do(t, r, "POST", "/api/match/clock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeState(t, rec).Match.ClockRunning)
}

func TestResetMatch(t *testing.T) {
	r := newTestRouter(t)
	finishMatch(t, r)

	rec := do(t, r, "POST", "/api/match/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Nil(t, state.Match.MatchWinner)
	assert.Equal(t, 0, state.Match.Slot(domain.SlotA).Games)
}

func TestExportImportRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, "POST", "/api/match/name", map[string]string{"slot": "playerA", "name": "Sam"})
	finishMatch(t, r)

	rec := do(t, r, "GET", "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	backup := rec.Body.Bytes()

	// Wipe everything, then import the backup
	do(t, r, "POST", "/api/match/reset", nil)
	do(t, r, "POST", "/api/match/name", map[string]string{"slot": "playerA", "name": "Nobody"})
	do(t, r, "DELETE", "/api/history", nil)

	req := httptest.NewRequest("POST", "/api/import", bytes.NewReader(backup))
	importRec := httptest.NewRecorder()
	r.ServeHTTP(importRec, req)
	require.Equal(t, http.StatusOK, importRec.Code, importRec.Body.String())

	state := decodeState(t, importRec)
	assert.Equal(t, "Sam", state.Match.Slot(domain.SlotA).Name)

	histRec := do(t, r, "GET", "/api/history", nil)
	var matches []domain.CompletedMatchSummary
	require.NoError(t, json.Unmarshal(histRec.Body.Bytes(), &matches))
	assert.Len(t, matches, 1)
}

func TestExportGzip(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, "GET", "/api/export?gzip=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	raw := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(raw), 2)
	assert.Equal(t, byte(0x1f), raw[0])
	assert.Equal(t, byte(0x8b), raw[1])

	// Import sniffs the compression
	req := httptest.NewRequest("POST", "/api/import", bytes.NewReader(raw))
	importRec := httptest.NewRecorder()
	r.ServeHTTP(importRec, req)
	assert.Equal(t, http.StatusOK, importRec.Code, importRec.Body.String())
}

func TestImportRejectsGarbage(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/import", bytes.NewReader([]byte("junk")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportRejectsWrongVersion(t *testing.T) {
	r := newTestRouter(t)

	payload := []byte(`{"version": 9, "matchState": {}}`)
	req := httptest.NewRequest("POST", "/api/import", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
