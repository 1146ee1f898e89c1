package scoreboard

import (
	"errors"
	"time"

	"aoc-leaderboard/leaderboard"
)

// ErrInvalidDay is returned for puzzle days outside 1..25.
var ErrInvalidDay = errors.New("day must be between 1 and 25")

const (
	maxPuzzleScore = 50
	minPuzzleScore = 10
	dailyPenalty   = 5
)

// releaseZone is UTC-5 without daylight saving. December never crosses a
// transition, so a fixed offset is exact.
var releaseZone = time.FixedZone("EST", -5*60*60)

// ReleaseTime returns the instant the puzzle of the given day unlocks:
// midnight UTC-5 on December <day>, expressed in UTC.
func ReleaseTime(year, day int) (time.Time, error) {
	if day < leaderboard.FirstDay || day > leaderboard.LastDay {
		return time.Time{}, ErrInvalidDay
	}
	return time.Date(year, time.December, day, 0, 0, 0, 0, releaseZone).UTC(), nil
}

// ScorePuzzle scores one part solved elapsed after release. Every full 24
// hours of delay costs 5 points, never going below 10.
func ScorePuzzle(elapsed time.Duration) int {
	days := int(elapsed / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	score := maxPuzzleScore - dailyPenalty*days
	if score < minPuzzleScore {
		return minPuzzleScore
	}
	return score
}
