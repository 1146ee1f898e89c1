package aoc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetLeaderboard(t *testing.T) {
	const body = `{"event":"2023","members":{}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2023/leaderboard/private/view/12345.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Cookie"); got != "session=secret" {
			t.Errorf("Cookie = %q, want session=secret", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL+"/"), WithTimeout(5*time.Second))

	got, err := client.GetLeaderboard(context.Background(), 2023, 12345)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if string(got) != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestGetLeaderboardServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))

	_, err := client.GetLeaderboard(context.Background(), 2023, 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Error("server error should not be reported as unauthenticated")
	}
}

func TestGetLeaderboardLoginRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2023/leaderboard/private/view/1.json", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/2023/leaderboard", http.StatusFound)
	})
	mux.HandleFunc("/2023/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html><html><head><title>Leaderboard - Advent of Code 2023</title></head>` +
			`<body><main><article><p>To view private leaderboards you must log in.</p></article></main></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient("expired", WithBaseURL(server.URL))

	_, err := client.GetLeaderboard(context.Background(), 2023, 1)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, should also match ErrNetwork", err)
	}
	if !strings.Contains(err.Error(), "got page ") {
		t.Errorf("error %q should describe the page", err)
	}
}

func TestGetLeaderboardNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("secret", WithBaseURL(url))

	_, err := client.GetLeaderboard(context.Background(), 2023, 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := client.GetLeaderboard(ctx, 2023, 1)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		contentType string
		body        string
		want        bool
	}{
		{"text/html; charset=utf-8", "anything", true},
		{"application/json", `{"event":2020}`, false},
		{"", "  <!DOCTYPE html>", true},
		{"", `{"event":2020}`, false},
	}
	for _, tt := range tests {
		if got := isHTML(tt.contentType, []byte(tt.body)); got != tt.want {
			t.Errorf("isHTML(%q, %q) = %v, want %v", tt.contentType, tt.body, got, tt.want)
		}
	}
}

func TestDefaultClient(t *testing.T) {
	client := NewClient("secret")
	if client.baseURL != "https://adventofcode.com" {
		t.Errorf("baseURL = %q, want Advent of Code URL", client.baseURL)
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
	}
}

func TestPublicURLs(t *testing.T) {
	if got := LeaderboardURL(2022, 77); got != "https://adventofcode.com/2022/leaderboard/private/view/77" {
		t.Errorf("LeaderboardURL = %q", got)
	}
	if got := PuzzleURL(2022, 3); got != "https://adventofcode.com/2022/day/3" {
		t.Errorf("PuzzleURL = %q", got)
	}
}
