package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernie/courtside/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSummary(id string, completedAt time.Time, winner domain.SlotID) domain.CompletedMatchSummary {
	return domain.CompletedMatchSummary{
		ID:           id,
		CompletedAt:  completedAt,
		DurationMs:   600000,
		GamesPlayed:  2,
		TotalRallies: 60,
		RaceTo:       21,
		BestOf:       3,
		WinByTwo:     true,
		WinnerID:     winner,
		WinnerName:   "Sam",
		Players: []domain.MatchPlayerSummary{
			{SlotID: domain.SlotA, Name: "Sam", Points: 42, Games: 2, WonMatch: winner == domain.SlotA},
			{SlotID: domain.SlotB, Name: "Alex", Points: 18, Games: 0, WonMatch: winner == domain.SlotB},
		},
	}
}

func TestLoadMatchDocumentMissing(t *testing.T) {
	store := newTestStore(t)

	data, err := store.LoadMatchDocument(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data, "no document stored yet")
}

func TestSaveAndLoadMatchDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &domain.MatchDocument{
		Players: []domain.PlayerSlot{
			{ID: domain.SlotA, Name: "Sam", Points: 12},
			{ID: domain.SlotB, Name: "Alex", Points: 9},
		},
		RaceTo:   21,
		MaxPoint: 30,
		BestOf:   3,
		Server:   domain.SlotA,
	}
	require.NoError(t, store.SaveMatchDocument(ctx, doc))

	data, err := store.LoadMatchDocument(ctx)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Contains(t, string(data), `"name":"Sam"`)

	// Overwrite under the same key
	doc.Players[0].Points = 15
	require.NoError(t, store.SaveMatchDocument(ctx, doc))

	data, err = store.LoadMatchDocument(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"points":15`)
}

func TestAppendAndGetCompletedMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendCompletedMatch(ctx, testSummary("m1", base, domain.SlotA)))
	require.NoError(t, store.AppendCompletedMatch(ctx, testSummary("m2", base.Add(time.Hour), domain.SlotB)))

	matches, err := store.GetCompletedMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Most recent first
	assert.Equal(t, "m2", matches[0].ID)
	assert.Equal(t, "m1", matches[1].ID)

	got := matches[1]
	assert.True(t, got.CompletedAt.Equal(base), "completed_at = %v, want %v", got.CompletedAt, base)
	assert.Equal(t, domain.SlotA, got.WinnerID)
	assert.Equal(t, "Sam", got.WinnerName)
	assert.EqualValues(t, 600000, got.DurationMs)
	assert.True(t, got.WinByTwo)

	require.Len(t, got.Players, 2)
	assert.Equal(t, "Alex", got.Players[1].Name)
	assert.True(t, got.Players[0].WonMatch)
}

func TestGetCompletedMatchesLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("m%d", i)
		require.NoError(t, store.AppendCompletedMatch(ctx, testSummary(id, base.Add(time.Duration(i)*time.Minute), domain.SlotA)))
	}

	matches, err := store.GetCompletedMatches(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, "m4", matches[0].ID)

	// Zero and out-of-range limits fall back to the cap
	matches, err = store.GetCompletedMatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestAppendTrimsToHistoryCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < domain.HistoryCap+5; i++ {
		id := fmt.Sprintf("m%03d", i)
		require.NoError(t, store.AppendCompletedMatch(ctx, testSummary(id, base.Add(time.Duration(i)*time.Minute), domain.SlotA)))
	}

	count, err := store.CountCompletedMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryCap, count)

	// The oldest rows are the ones that went
	matches, err := store.GetCompletedMatches(ctx, domain.HistoryCap)
	require.NoError(t, err)
	require.Len(t, matches, domain.HistoryCap)
	assert.Equal(t, fmt.Sprintf("m%03d", domain.HistoryCap+4), matches[0].ID)
	assert.Equal(t, "m005", matches[len(matches)-1].ID)
}

func TestClearCompletedMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendCompletedMatch(ctx, testSummary("m1", time.Now(), domain.SlotA)))
	require.NoError(t, store.ClearCompletedMatches(ctx))

	count, err := store.CountCompletedMatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReplaceCompletedMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendCompletedMatch(ctx, testSummary("old", base, domain.SlotA)))

	replacement := []domain.CompletedMatchSummary{
		testSummary("new1", base.Add(time.Hour), domain.SlotA),
		testSummary("new2", base.Add(2*time.Hour), domain.SlotB),
	}
	require.NoError(t, store.ReplaceCompletedMatches(ctx, replacement))

	matches, err := store.GetCompletedMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "new2", matches[0].ID)
	assert.Equal(t, "new1", matches[1].ID)
}

func TestReplaceCompletedMatchesEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendCompletedMatch(ctx, testSummary("old", time.Now(), domain.SlotA)))
	require.NoError(t, store.ReplaceCompletedMatches(ctx, nil))

	count, err := store.CountCompletedMatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
