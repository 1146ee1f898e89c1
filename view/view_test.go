package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"aoc-leaderboard/config"
	"aoc-leaderboard/scoreboard"
)

func testConfig() config.LeaderboardConfig {
	return config.LeaderboardConfig{
		ID:   42,
		Name: "Acme",
		Slug: "acme",
		Code: "42-abcdef",
		Year: 2023,
		Repositories: map[int]string{
			1: "https://example.com/one",
			2: "https://example.com/two",
		},
	}
}

func testScoreboard() *scoreboard.Scoreboard {
	var alice, bob, carol scoreboard.MemberScore
	alice.Member = scoreboard.Member{ID: 1, Name: "Alice"}
	alice.Score = 100
	alice.Stars[0] = scoreboard.StarsBoth
	bob.Member = scoreboard.Member{ID: 2, Name: "Bob"}
	bob.Score = 50
	bob.Stars[0] = scoreboard.StarsFirst
	carol.Member = scoreboard.Member{ID: 3, Name: "(anonymous user #3)"}
	carol.Score = 50
	carol.Stars[1] = scoreboard.StarsFirst

	return &scoreboard.Scoreboard{
		Year:   2023,
		Scores: []scoreboard.MemberScore{alice, bob, carol},
	}
}

// Dec 3rd 2023 12:00 UTC, days 1 to 3 are released.
var testNow = time.Date(2023, 12, 3, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	meta := map[int]config.MemberMetadata{
		2: {Name: "Robert"},
		3: {Repository: "https://example.com/carol"},
	}

	lb := New(testConfig(), meta, testScoreboard(), testNow)

	if lb.Title != "Acme" || lb.Slug != "acme" || lb.Year != 2023 || lb.Code != "42-abcdef" {
		t.Errorf("header fields = %+v", lb)
	}
	if lb.OfficialURL != "https://adventofcode.com/2023/leaderboard/private/view/42" {
		t.Errorf("OfficialURL = %q", lb.OfficialURL)
	}

	type summary struct {
		Place      int
		Name       string
		Repository string
		Score      int
		StarCount  int
	}
	var got []summary
	for _, r := range lb.Rows {
		got = append(got, summary{r.Place, r.Name, r.Repository, r.Score, r.StarCount})
	}
	want := []summary{
		{1, "Alice", "https://example.com/one", 100, 2},
		{2, "Robert", "https://example.com/two", 50, 1},
		{2, "(anonymous user #3)", "https://example.com/carol", 50, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if lb.Rows[0].Progress[0] != "both" || lb.Rows[0].Progress[1] != "none" {
		t.Errorf("Progress = %v", lb.Rows[0].Progress[:2])
	}
}

func TestNewMetadataRepositoryWins(t *testing.T) {
	meta := map[int]config.MemberMetadata{
		1: {Repository: "https://example.com/alice-2023"},
	}

	lb := New(testConfig(), meta, testScoreboard(), testNow)

	if lb.Rows[0].Repository != "https://example.com/alice-2023" {
		t.Errorf("Repository = %q", lb.Rows[0].Repository)
	}
	if lb.Rows[0].Name != "Alice" {
		t.Errorf("an empty metadata name should keep the reported name, got %q", lb.Rows[0].Name)
	}
}

func TestNewDays(t *testing.T) {
	lb := New(testConfig(), nil, testScoreboard(), testNow)

	if len(lb.Days) != 25 {
		t.Fatalf("got %d days, want 25", len(lb.Days))
	}
	for _, d := range lb.Days {
		wantReleased := d.Number <= 3
		if d.Released != wantReleased {
			t.Errorf("day %d released = %v, want %v", d.Number, d.Released, wantReleased)
		}
		if d.Released && d.URL == "" {
			t.Errorf("day %d has no URL", d.Number)
		}
		if !d.Released && d.URL != "" {
			t.Errorf("unreleased day %d links to %q", d.Number, d.URL)
		}
	}
	if lb.Days[2].URL != "https://adventofcode.com/2023/day/3" {
		t.Errorf("day 3 URL = %q", lb.Days[2].URL)
	}

	// Released at 05:00 UTC, not at midnight UTC.
	lb = New(testConfig(), nil, testScoreboard(), time.Date(2023, 12, 4, 4, 59, 0, 0, time.UTC))
	if lb.Days[3].Released {
		t.Error("day 4 should not be released before 05:00 UTC")
	}
}

func TestDayDigits(t *testing.T) {
	tests := []struct {
		day        int
		tens, ones string
	}{
		{1, "", "1"},
		{9, "", "9"},
		{10, "1", "0"},
		{25, "2", "5"},
	}
	for _, tt := range tests {
		d := Day{Number: tt.day}
		if d.Tens() != tt.tens || d.Ones() != tt.ones {
			t.Errorf("day %d = (%q, %q), want (%q, %q)", tt.day, d.Tens(), d.Ones(), tt.tens, tt.ones)
		}
	}
}

func TestNewEmptyScoreboard(t *testing.T) {
	cfg := testConfig()
	cfg.Name = ""

	lb := New(cfg, nil, &scoreboard.Scoreboard{Year: 2023}, testNow)

	if len(lb.Rows) != 0 {
		t.Errorf("got %d rows", len(lb.Rows))
	}
	if lb.Title != "Advent of Code" {
		t.Errorf("Title = %q, want fallback", lb.Title)
	}
}
