package standings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itbasis/go-clock"

	"aoc-leaderboard/config"
	"aoc-leaderboard/scoreboard"
)

type mockScoreboards struct {
	boards map[int]*scoreboard.Scoreboard
	failID int
	calls  []int
}

func (m *mockScoreboards) Scoreboard(ctx context.Context, year, id int) (*scoreboard.Scoreboard, error) {
	m.calls = append(m.calls, id)
	if id == m.failID {
		return nil, errors.New("upstream down")
	}
	if sb, ok := m.boards[id]; ok {
		return sb, nil
	}
	return &scoreboard.Scoreboard{Year: year}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Leaderboards: []config.LeaderboardConfig{
			{ID: 1, Slug: "first", Name: "First", Year: 2023},
			{ID: 2, Slug: "second", Name: "Second", Year: 2022},
		},
		Metadata: map[int]map[int]config.MemberMetadata{
			2023: {7: {Name: "Seven"}},
		},
	}
}

func TestStandings(t *testing.T) {
	var ms scoreboard.MemberScore
	ms.Member = scoreboard.Member{ID: 7, Name: "(anonymous user #7)"}
	ms.Score = 50
	source := &mockScoreboards{boards: map[int]*scoreboard.Scoreboard{
		1: {Year: 2023, Scores: []scoreboard.MemberScore{ms}},
	}}
	mock := clock.NewMock()
	mock.Set(time.Date(2023, 12, 2, 6, 0, 0, 0, time.UTC))

	svc := NewService(testConfig(), source, WithClock(mock))

	lb, err := svc.Standings(context.Background(), "first")
	if err != nil {
		t.Fatalf("Standings failed: %v", err)
	}
	if lb.Title != "First" || lb.Year != 2023 {
		t.Errorf("got %q (%d)", lb.Title, lb.Year)
	}
	if len(lb.Rows) != 1 || lb.Rows[0].Name != "Seven" {
		t.Errorf("metadata for the event year should apply, rows = %+v", lb.Rows)
	}
	if !lb.Days[1].Released || lb.Days[2].Released {
		t.Error("release state should follow the injected clock")
	}
}

func TestStandingsUnknownSlug(t *testing.T) {
	source := &mockScoreboards{}
	svc := NewService(testConfig(), source)

	_, err := svc.Standings(context.Background(), "nope")
	if !errors.Is(err, config.ErrUnknownLeaderboard) {
		t.Fatalf("error = %v, want ErrUnknownLeaderboard", err)
	}
	if len(source.calls) != 0 {
		t.Error("unknown slugs must not reach the fetcher")
	}
}

func TestAllPartialFailure(t *testing.T) {
	source := &mockScoreboards{failID: 1}
	svc := NewService(testConfig(), source)

	boards, err := svc.All(context.Background())
	if err == nil {
		t.Fatal("expected error for failing leaderboard")
	}
	if len(boards) != 1 || boards[0].Slug != "second" {
		t.Errorf("got %d boards, want only 'second'", len(boards))
	}
}

func TestWarm(t *testing.T) {
	source := &mockScoreboards{}
	svc := NewService(testConfig(), source)

	if err := svc.Warm(context.Background()); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	if len(source.calls) != 2 {
		t.Errorf("warmed %d leaderboards, want 2", len(source.calls))
	}

	source.failID = 2
	if err := svc.Warm(context.Background()); err == nil {
		t.Error("expected error when a leaderboard fails")
	}
}

func TestLeaderboards(t *testing.T) {
	svc := NewService(testConfig(), &mockScoreboards{})
	if got := svc.Leaderboards(); len(got) != 2 || got[0].Slug != "first" {
		t.Errorf("Leaderboards = %+v", got)
	}
}
