package scoreboard

import (
	"testing"
	"time"

	"github.com/ernie/courtside/internal/domain"
)

func TestClockElapsedWhileRunning(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &domain.MatchDocument{
		ClockRunning:   true,
		ClockStartedAt: &start,
		ClockElapsedMs: 5000,
	}

	got := clockElapsed(doc, start.Add(10*time.Second))
	if got != 15000 {
		t.Fatalf("clockElapsed = %d, want 15000", got)
	}
}

func TestClockElapsedWhilePaused(t *testing.T) {
	doc := &domain.MatchDocument{ClockElapsedMs: 42000}

	got := clockElapsed(doc, time.Now())
	if got != 42000 {
		t.Fatalf("clockElapsed = %d, want 42000", got)
	}
}

func TestToggleClockPauseResume(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &domain.MatchDocument{}
	restartClock(doc, start)

	// Pause after 30s: elapsed folds into the offset
	pauseAt := start.Add(30 * time.Second)
	toggleClock(doc, pauseAt)
	if doc.ClockRunning {
		t.Fatal("clock still running after pause")
	}
	if doc.ClockStartedAt != nil {
		t.Fatal("start timestamp kept after pause")
	}
	if doc.ClockElapsedMs != 30000 {
		t.Fatalf("elapsed offset = %d, want 30000", doc.ClockElapsedMs)
	}

	// Resume: offset preserved, new start stamped
	resumeAt := pauseAt.Add(5 * time.Minute)
	toggleClock(doc, resumeAt)
	if !doc.ClockRunning || doc.ClockStartedAt == nil {
		t.Fatal("clock not running after resume")
	}
	if doc.ClockElapsedMs != 30000 {
		t.Fatalf("elapsed offset changed on resume: %d", doc.ClockElapsedMs)
	}

	// The paused gap does not count
	got := clockElapsed(doc, resumeAt.Add(10*time.Second))
	if got != 40000 {
		t.Fatalf("elapsed after resume = %d, want 40000", got)
	}
}

func TestStopClockZeroes(t *testing.T) {
	start := time.Now()
	doc := &domain.MatchDocument{ClockRunning: true, ClockStartedAt: &start, ClockElapsedMs: 9000}

	stopClock(doc)
	if doc.ClockRunning || doc.ClockStartedAt != nil || doc.ClockElapsedMs != 0 {
		t.Fatalf("stopClock left %+v", doc)
	}
}
