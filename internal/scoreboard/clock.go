package scoreboard

import (
	"time"

	"github.com/ernie/courtside/internal/domain"
)

// The match clock is a three-field model: an accumulated offset while
// stopped, a start timestamp while running, and the running flag. Live
// elapsed time is always computed, never stored while running.

// clockElapsed returns the live elapsed time in milliseconds
func clockElapsed(d *domain.MatchDocument, now time.Time) int64 {
	if d.ClockRunning && d.ClockStartedAt != nil {
		return d.ClockElapsedMs + now.Sub(*d.ClockStartedAt).Milliseconds()
	}
	return d.ClockElapsedMs
}

// toggleClock pauses a running clock (capturing elapsed into the offset) or
// resumes a paused one (stamping a new start time)
func toggleClock(d *domain.MatchDocument, now time.Time) {
	if d.ClockRunning {
		d.ClockElapsedMs = clockElapsed(d, now)
		d.ClockRunning = false
		d.ClockStartedAt = nil
		return
	}
	t := now
	d.ClockRunning = true
	d.ClockStartedAt = &t
}

// stopClock force-stops the clock and zeroes the elapsed offset, used on the
// transition into a completed match
func stopClock(d *domain.MatchDocument) {
	d.ClockRunning = false
	d.ClockStartedAt = nil
	d.ClockElapsedMs = 0
}

// restartClock starts the clock fresh from zero
func restartClock(d *domain.MatchDocument, now time.Time) {
	t := now
	d.ClockRunning = true
	d.ClockStartedAt = &t
	d.ClockElapsedMs = 0
}
