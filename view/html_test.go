package view

import (
	"strings"
	"testing"

	"aoc-leaderboard/config"
	"aoc-leaderboard/scoreboard"
)

func TestStaticHTML(t *testing.T) {
	cfg := testConfig()
	cfg.Header = `<p class="intro">Welcome!</p>`
	lb := New(cfg, nil, testScoreboard(), testNow)

	page, err := StaticHTML(NewRenderer(), lb)
	if err != nil {
		t.Fatalf("StaticHTML failed: %v", err)
	}

	for _, want := range []string{
		"<!doctype html>",
		"<title>Acme (2023)</title>",
		`<p class="intro">Welcome!</p>`,
		`<h1>Acme <span class="star-first-only">(2023)</span></h1>`,
		`<a href="https://adventofcode.com/2023/day/3"><br>3</a>`,
		" 1) ",
		`<span class="star-both">*</span>`,
		`<span class="star-first-only">*</span>`,
		"  100 ",
		`<a href="https://example.com/one">Alice</a>`,
		`<a href="https://adventofcode.com/2023/leaderboard/private/view/42">official leaderboard</a>`,
		"<code>42-abcdef</code>",
		"How does the scoring work?",
		"</html>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page is missing %q", want)
		}
	}

	// Unreleased days are not linked.
	if strings.Contains(page, "/2023/day/4") {
		t.Error("day 4 should not be linked yet")
	}
	// Tied members share a place.
	if strings.Count(page, " 2) ") != 2 {
		t.Errorf("expected two members in 2nd place")
	}
}

func TestStaticHTMLEscapesNames(t *testing.T) {
	var ms scoreboard.MemberScore
	ms.Member = scoreboard.Member{ID: 9, Name: "<script>alert(1)</script>"}
	sb := &scoreboard.Scoreboard{Year: 2023, Scores: []scoreboard.MemberScore{ms}}

	lb := New(config.LeaderboardConfig{ID: 1, Slug: "x", Year: 2023}, nil, sb, testNow)

	page, err := StaticHTML(NewRenderer(), lb)
	if err != nil {
		t.Fatalf("StaticHTML failed: %v", err)
	}
	if strings.Contains(page, "<script>") {
		t.Error("member name was not escaped")
	}
	if !strings.Contains(page, "&lt;script&gt;") {
		t.Error("escaped member name missing")
	}
	if strings.Contains(page, "How to join") {
		t.Error("join section should be omitted without a code")
	}
}
