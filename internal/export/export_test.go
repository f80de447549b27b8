package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ernie/courtside/internal/domain"
)

func testDocument() *domain.MatchDocument {
	return &domain.MatchDocument{
		Players: []domain.PlayerSlot{
			{ID: domain.SlotA, Name: "Sam", Points: 12},
			{ID: domain.SlotB, Name: "Alex", Points: 9},
		},
		RaceTo:   21,
		MaxPoint: 30,
		BestOf:   3,
		Server:   domain.SlotA,
	}
}

func testMatches() []domain.CompletedMatchSummary {
	return []domain.CompletedMatchSummary{
		{
			ID:          "m1",
			CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			WinnerID:    domain.SlotA,
			WinnerName:  "Sam",
			GamesPlayed: 2,
		},
	}
}

func TestRoundTripPlain(t *testing.T) {
	env := Build(testDocument(), testMatches())

	var buf bytes.Buffer
	if err := Write(&buf, env, false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": 1`) {
		t.Fatal("plain output is not indented JSON with a version field")
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != Version {
		t.Fatalf("version = %d", got.Version)
	}
	if got.MatchState.Slot(domain.SlotA).Points != 12 {
		t.Fatalf("match state mangled: %+v", got.MatchState)
	}
	if len(got.CompletedMatches) != 1 || got.CompletedMatches[0].ID != "m1" {
		t.Fatalf("history mangled: %+v", got.CompletedMatches)
	}
}

func TestRoundTripGzip(t *testing.T) {
	env := Build(testDocument(), testMatches())

	var buf bytes.Buffer
	if err := Write(&buf, env, true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// gzip magic bytes up front
	raw := buf.Bytes()
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		t.Fatalf("output is not gzip: % x", raw[:2])
	}

	// Read sniffs the compression, no hint needed
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.MatchState.Slot(domain.SlotB).Name != "Alex" {
		t.Fatalf("match state mangled: %+v", got.MatchState)
	}
}

func TestBuildNilHistory(t *testing.T) {
	env := Build(testDocument(), nil)
	if env.CompletedMatches == nil {
		t.Fatal("nil history should encode as an empty array")
	}
	if env.ExportedAt.IsZero() {
		t.Fatal("exportedAt not stamped")
	}
}

func TestReadRejectsWrongVersion(t *testing.T) {
	payload := `{"version": 2, "matchState": {}}`
	_, err := Read(strings.NewReader(payload))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestReadRejectsMissingMatchState(t *testing.T) {
	payload := `{"version": 1, "completedMatches": []}`
	if _, err := Read(strings.NewReader(payload)); err == nil {
		t.Fatal("expected error for missing match state")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(strings.NewReader("not json at all")); err == nil {
		t.Fatal("expected error")
	}
	// Gzip magic with a broken stream behind it
	if _, err := Read(bytes.NewReader([]byte{0x1f, 0x8b, 0x00})); err == nil {
		t.Fatal("expected error for truncated gzip")
	}
}
