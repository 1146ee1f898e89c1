// Package view turns a scoreboard into what the console, the static pages
// and the web server show.
package view

import (
	"html/template"
	"strconv"
	"time"

	"aoc-leaderboard/aoc"
	"aoc-leaderboard/config"
	"aoc-leaderboard/leaderboard"
	"aoc-leaderboard/scoreboard"
)

// Leaderboard is the presentation model of one configured leaderboard.
type Leaderboard struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Year  int    `json:"year"`
	ID    int    `json:"id"`
	Code  string `json:"code,omitempty"`
	// Header is trusted HTML from the configuration.
	Header      template.HTML `json:"-"`
	OfficialURL string        `json:"official_url"`
	Days        []Day         `json:"days"`
	Rows        []Row         `json:"rows"`
}

// Day is one column of the star grid.
type Day struct {
	Number   int    `json:"number"`
	Released bool   `json:"released"`
	URL      string `json:"url,omitempty"`
}

// Tens and Ones split the day number for the two-line column header.
func (d Day) Tens() string {
	if d.Number < 10 {
		return ""
	}
	return strconv.Itoa(d.Number / 10)
}

func (d Day) Ones() string {
	return strconv.Itoa(d.Number % 10)
}

// Row is one ranked member.
type Row struct {
	Place      int                                   `json:"place"`
	ID         int                                   `json:"id"`
	Name       string                                `json:"name"`
	Repository string                                `json:"repository,omitempty"`
	Score      int                                   `json:"score"`
	StarCount  int                                   `json:"star_count"`
	Stars      [leaderboard.LastDay]scoreboard.Stars `json:"-"`
	Progress   [leaderboard.LastDay]string           `json:"stars"`
}

// New builds the presentation model. Metadata entries override the name
// reported upstream and take precedence over the leaderboard's own
// repository list.
func New(cfg config.LeaderboardConfig, metadata map[int]config.MemberMetadata, sb *scoreboard.Scoreboard, now time.Time) *Leaderboard {
	lb := &Leaderboard{
		Title:       cfg.Name,
		Slug:        cfg.Slug,
		Year:        cfg.Year,
		ID:          cfg.ID,
		Code:        cfg.Code,
		Header:      template.HTML(cfg.Header),
		OfficialURL: aoc.LeaderboardURL(cfg.Year, cfg.ID),
	}
	if lb.Title == "" {
		lb.Title = "Advent of Code"
	}

	for day := leaderboard.FirstDay; day <= leaderboard.LastDay; day++ {
		d := Day{Number: day}
		if release, err := scoreboard.ReleaseTime(cfg.Year, day); err == nil && release.Before(now) {
			d.Released = true
			d.URL = aoc.PuzzleURL(cfg.Year, day)
		}
		lb.Days = append(lb.Days, d)
	}

	places := sb.Places()
	lb.Rows = make([]Row, len(sb.Scores))
	for i, ms := range sb.Scores {
		row := Row{
			Place:      places[i],
			ID:         ms.Member.ID,
			Name:       ms.Member.Name,
			Repository: cfg.Repositories[ms.Member.ID],
			Score:      ms.Score,
			StarCount:  ms.StarCount(),
			Stars:      ms.Stars,
		}
		if meta, ok := metadata[ms.Member.ID]; ok {
			if meta.Name != "" {
				row.Name = meta.Name
			}
			if meta.Repository != "" {
				row.Repository = meta.Repository
			}
		}
		for d, s := range ms.Stars {
			row.Progress[d] = s.String()
		}
		lb.Rows[i] = row
	}

	return lb
}
