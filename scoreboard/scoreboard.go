// Package scoreboard scores a normalized leaderboard and ranks its members.
package scoreboard

import (
	"fmt"
	"sort"

	"aoc-leaderboard/leaderboard"
)

// Stars is the progress of a member on a single day.
type Stars int

const (
	StarsNone Stars = iota
	StarsFirst
	StarsBoth
)

func (s Stars) String() string {
	switch s {
	case StarsFirst:
		return "first"
	case StarsBoth:
		return "both"
	default:
		return "none"
	}
}

// Member identifies a participant for presentation.
type Member struct {
	ID   int
	Name string
	// Repository is filled in by presentation layers, never by Build.
	Repository string
}

// MemberScore is the computed result for a single member.
type MemberScore struct {
	Member Member
	Stars  [leaderboard.LastDay]Stars
	Score  int
}

// Scoreboard is the ranked result of a leaderboard.
type Scoreboard struct {
	Year   int
	Scores []MemberScore
}

// AnonymousName is the display name of members without a public name.
func AnonymousName(id int) string {
	return fmt.Sprintf("(anonymous user #%d)", id)
}

// Build scores every member of the leaderboard and sorts them by score,
// highest first. Members with equal score are ordered by ascending id.
func Build(lb *leaderboard.Leaderboard) *Scoreboard {
	sb := &Scoreboard{
		Year:   lb.Event,
		Scores: make([]MemberScore, 0, len(lb.Members)),
	}

	for _, m := range lb.Members {
		sb.Scores = append(sb.Scores, scoreMember(lb.Event, m))
	}

	sort.Slice(sb.Scores, func(i, j int) bool {
		a, b := sb.Scores[i], sb.Scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Member.ID < b.Member.ID
	})

	return sb
}

func scoreMember(year int, m *leaderboard.Member) MemberScore {
	name := AnonymousName(m.ID)
	if m.Name != nil {
		name = *m.Name
	}

	ms := MemberScore{Member: Member{ID: m.ID, Name: name}}
	for day := leaderboard.FirstDay; day <= leaderboard.LastDay; day++ {
		progress, ok := m.CompletionDayLevel[day]
		if !ok {
			continue
		}

		// Days are always in range here.
		released, _ := ReleaseTime(year, day)

		ms.Score += ScorePuzzle(progress.Part1.Sub(released))
		ms.Stars[day-1] = StarsFirst
		if progress.Part2 != nil {
			ms.Score += ScorePuzzle(progress.Part2.Sub(released))
			ms.Stars[day-1] = StarsBoth
		}
	}
	return ms
}

// StarCount returns the number of stars earned.
func (ms MemberScore) StarCount() int {
	var n int
	for _, s := range ms.Stars {
		switch s {
		case StarsFirst:
			n++
		case StarsBoth:
			n += 2
		}
	}
	return n
}

// Places returns the standing of each entry of Scores. Members tied on score
// share the place of the first of them.
func (sb *Scoreboard) Places() []int {
	places := make([]int, len(sb.Scores))
	for i, ms := range sb.Scores {
		if i > 0 && ms.Score == sb.Scores[i-1].Score {
			places[i] = places[i-1]
			continue
		}
		places[i] = i + 1
	}
	return places
}
