package scoreboard

import (
	"sort"
	"strings"

	"github.com/ernie/courtside/internal/domain"
)

// StatsMinSample is the minimum completed-match count before aggregates are
// reported; below it the tool has nothing meaningful to say
const StatsMinSample = 3

// momentumWindow bounds how far back the momentum view looks
const momentumWindow = 10

// RecentPace describes the scoring pace of the most recent match
type RecentPace struct {
	AvgRallyMs       int64   `json:"avg_rally_ms"`
	RalliesPerMinute float64 `json:"rallies_per_minute"`
	AvgGameMs        int64   `json:"avg_game_ms"`
}

// PlayerAggregate is the per-player line of the statistics report, keyed by
// profile id or lower-cased name when no profile is linked
type PlayerAggregate struct {
	Key                string  `json:"key"`
	Name               string  `json:"name"`
	ProfileID          string  `json:"profile_id,omitempty"`
	Matches            int     `json:"matches"`
	Wins               int     `json:"wins"`
	WinRate            float64 `json:"win_rate"`
	AvgPointsPerGame   float64 `json:"avg_points_per_game"`
	AvgMatchDurationMs int64   `json:"avg_match_duration_ms"`
}

// StatsReport is the read-side aggregate over the completed-match history
type StatsReport struct {
	SampleSize int               `json:"sample_size"`
	Recent     *RecentPace       `json:"recent,omitempty"`
	Players    []PlayerAggregate `json:"players,omitempty"`
}

// HeadToHeadReport counts decided matches between two players
type HeadToHeadReport struct {
	Matches int `json:"matches"`
	WinsA   int `json:"wins_a"`
	WinsB   int `json:"wins_b"`
}

// MomentumReport is a player's recent win/loss run, most recent first
type MomentumReport struct {
	Matches int    `json:"matches"`
	Results []bool `json:"results"`
	// Streak counts consecutive results from the most recent match:
	// positive for wins, negative for losses
	Streak int `json:"streak"`
}

// playerKey identifies a player across matches: the linked profile when
// there is one, the lower-cased name otherwise
func playerKey(line domain.MatchPlayerSummary) string {
	if line.ProfileID != "" {
		return line.ProfileID
	}
	return strings.ToLower(strings.TrimSpace(line.Name))
}

// BuildStats derives the statistics report from the history collection,
// which must be ordered most recent first. Pure read: never mutates history.
func BuildStats(history []domain.CompletedMatchSummary) StatsReport {
	report := StatsReport{SampleSize: len(history)}
	if len(history) < StatsMinSample {
		return report
	}

	report.Recent = recentPace(history[0])

	type accum struct {
		agg        PlayerAggregate
		points     int
		games      int
		raceToSum  int
		durationMs int64
	}
	byKey := map[string]*accum{}
	var order []string

	for _, match := range history {
		for _, line := range match.Players {
			key := playerKey(line)
			if key == "" {
				continue
			}
			a, ok := byKey[key]
			if !ok {
				// History is most-recent-first, so the first name seen is
				// the player's current one
				a = &accum{agg: PlayerAggregate{Key: key, Name: line.Name, ProfileID: line.ProfileID}}
				byKey[key] = a
				order = append(order, key)
			}
			a.agg.Matches++
			if line.WonMatch {
				a.agg.Wins++
			}
			a.points += line.Points
			a.games += match.GamesPlayed
			a.raceToSum += match.RaceTo
			a.durationMs += match.DurationMs
		}
	}

	players := make([]PlayerAggregate, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		agg := a.agg
		agg.WinRate = float64(agg.Wins) / float64(agg.Matches)
		if a.games > 0 {
			perGame := float64(a.points) / float64(a.games)
			// Cap at the player's average race-to so mixed configurations
			// cannot skew the figure
			avgRaceTo := float64(a.raceToSum) / float64(agg.Matches)
			if perGame > avgRaceTo {
				perGame = avgRaceTo
			}
			agg.AvgPointsPerGame = perGame
		}
		agg.AvgMatchDurationMs = a.durationMs / int64(agg.Matches)
		players = append(players, agg)
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Matches != players[j].Matches {
			return players[i].Matches > players[j].Matches
		}
		return players[i].Name < players[j].Name
	})
	report.Players = players
	return report
}

func recentPace(match domain.CompletedMatchSummary) *RecentPace {
	pace := &RecentPace{}
	if match.TotalRallies > 0 {
		pace.AvgRallyMs = match.DurationMs / int64(match.TotalRallies)
	}
	if match.DurationMs > 0 {
		pace.RalliesPerMinute = float64(match.TotalRallies) / (float64(match.DurationMs) / 60000.0)
	}
	if match.GamesPlayed > 0 {
		pace.AvgGameMs = match.DurationMs / int64(match.GamesPlayed)
	}
	return pace
}

// HeadToHead counts the matches where both players appeared, and who won
// them. Keys are as produced by the stats report.
func HeadToHead(history []domain.CompletedMatchSummary, keyA, keyB string) HeadToHeadReport {
	var report HeadToHeadReport
	if keyA == "" || keyB == "" || keyA == keyB {
		return report
	}

	for _, match := range history {
		var lineA, lineB *domain.MatchPlayerSummary
		for i := range match.Players {
			switch playerKey(match.Players[i]) {
			case keyA:
				lineA = &match.Players[i]
			case keyB:
				lineB = &match.Players[i]
			}
		}
		if lineA == nil || lineB == nil {
			continue
		}
		report.Matches++
		if lineA.WonMatch {
			report.WinsA++
		}
		if lineB.WonMatch {
			report.WinsB++
		}
	}
	return report
}

// Momentum returns a player's win/loss run over their most recent matches
func Momentum(history []domain.CompletedMatchSummary, key string) MomentumReport {
	var report MomentumReport
	if key == "" {
		return report
	}

	for _, match := range history {
		for i := range match.Players {
			if playerKey(match.Players[i]) != key {
				continue
			}
			report.Matches++
			report.Results = append(report.Results, match.Players[i].WonMatch)
			break
		}
		if report.Matches == momentumWindow {
			break
		}
	}

	for i, won := range report.Results {
		if i == 0 {
			if won {
				report.Streak = 1
			} else {
				report.Streak = -1
			}
			continue
		}
		if won == (report.Streak > 0) {
			if report.Streak > 0 {
				report.Streak++
			} else {
				report.Streak--
			}
		} else {
			break
		}
	}
	return report
}
