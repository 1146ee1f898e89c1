// Package aoc talks to the Advent of Code website.
package aoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// DefaultBaseURL is the public Advent of Code site.
const DefaultBaseURL = "https://adventofcode.com"

const (
	userAgent       = "aoc-leaderboard (+https://github.com/runfalk/advent-of-code-leaderboard)"
	maxResponseSize = 8 << 20
)

var (
	// ErrNetwork wraps every failure to obtain a leaderboard from upstream.
	ErrNetwork = errors.New("upstream request failed")

	// ErrUnauthenticated is returned when upstream answers with a web page
	// instead of JSON, which is what happens with an expired session.
	ErrUnauthenticated = fmt.Errorf("%w: session cookie rejected", ErrNetwork)
)

// Client fetches private leaderboards.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client authenticating with the given session cookie.
func NewClient(session string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLeaderboard downloads the raw JSON of a private leaderboard. The body is
// returned as is; callers are expected to validate it.
func (c *Client) GetLeaderboard(ctx context.Context, year, id int) ([]byte, error) {
	url := fmt.Sprintf("%s/%d/leaderboard/private/view/%d.json", c.baseURL, year, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cookie", "session="+c.session)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch leaderboard %d/%d: %w", ErrNetwork, year, id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read leaderboard %d/%d: %w", ErrNetwork, year, id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status: %d", ErrNetwork, resp.StatusCode)
	}

	if isHTML(resp.Header.Get("Content-Type"), body) {
		return nil, fmt.Errorf("%w: got page %q instead of JSON", ErrUnauthenticated, pageTitle(body, resp.Request.URL))
	}

	return body, nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.HasPrefix(contentType, "text/html") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

// pageTitle extracts a human readable title from an HTML page.
func pageTitle(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil || strings.TrimSpace(article.Title) == "" {
		return "untitled"
	}
	return strings.TrimSpace(article.Title)
}

// LeaderboardURL is the public page of a private leaderboard. Links always
// point at DefaultBaseURL; WithBaseURL only redirects the API requests of a
// Client.
func LeaderboardURL(year, id int) string {
	return fmt.Sprintf("%s/%d/leaderboard/private/view/%d", DefaultBaseURL, year, id)
}

// PuzzleURL is the public page of a puzzle on DefaultBaseURL.
func PuzzleURL(year, day int) string {
	return fmt.Sprintf("%s/%d/day/%d", DefaultBaseURL, year, day)
}
