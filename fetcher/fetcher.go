// Package fetcher serves leaderboard documents from a local cache and only
// asks upstream when the cached copy is older than the allowed refresh
// interval.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/prometheus/client_golang/prometheus"

	"aoc-leaderboard/cache"
	"aoc-leaderboard/leaderboard"
	"aoc-leaderboard/scoreboard"
)

// DefaultTTL is the minimum time between two upstream requests for the same
// leaderboard. Advent of Code asks for at most one request per 15 minutes.
const DefaultTTL = 15 * time.Minute

// Upstream downloads raw leaderboard documents.
type Upstream interface {
	GetLeaderboard(ctx context.Context, year, id int) ([]byte, error)
}

// Fetcher is safe for concurrent use. All calls are serialized so that no two
// upstream requests are ever in flight at the same time for one session.
type Fetcher struct {
	mu       sync.Mutex
	upstream Upstream
	store    cache.Store
	clock    clock.Clock
	ttl      time.Duration
	logger   *slog.Logger
	parse    func([]byte) (*leaderboard.Leaderboard, error)

	cacheHits        prometheus.Counter
	upstreamRequests *prometheus.CounterVec
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock sets the clock used for staleness checks.
func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) {
		f.clock = c
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(f *Fetcher) {
		f.ttl = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithMetrics registers the fetcher metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(f *Fetcher) {
		reg.MustRegister(f.cacheHits, f.upstreamRequests)
	}
}

// New creates a fetcher.
func New(upstream Upstream, store cache.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		upstream: upstream,
		store:    store,
		clock:    clock.New(),
		ttl:      DefaultTTL,
		logger:   slog.Default(),
		parse:    leaderboard.Parse,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoc_leaderboard_cache_hits_total",
			Help: "Leaderboard documents served from the cache.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoc_leaderboard_upstream_requests_total",
			Help: "Leaderboard requests sent upstream, by outcome.",
		}, []string{"outcome"}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the raw JSON document of a leaderboard. A cached copy younger
// than the TTL is returned without contacting upstream. Otherwise exactly one
// upstream request is made and a valid response replaces the cached copy.
func (f *Fetcher) Fetch(ctx context.Context, year, id int) (string, error) {
	body, _, err := f.fetch(ctx, year, id)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Scoreboard fetches, normalizes and scores a leaderboard.
func (f *Fetcher) Scoreboard(ctx context.Context, year, id int) (*scoreboard.Scoreboard, error) {
	body, lb, err := f.fetch(ctx, year, id)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		if lb, err = f.parse(body); err != nil {
			return nil, fmt.Errorf("parse leaderboard %d/%d: %w", year, id, err)
		}
	}
	return scoreboard.Build(lb), nil
}

// fetch also returns the parsed document when the body came from upstream.
// Cached bodies are returned unparsed.
func (f *Fetcher) fetch(ctx context.Context, year, id int) ([]byte, *leaderboard.Leaderboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := cache.Key(year, id)
	logger := f.logger.With("year", year, "id", id)

	entry, err := f.store.Get(ctx, key)
	switch {
	case err == nil:
		age := f.clock.Now().Sub(entry.ModTime)
		if age < f.ttl {
			f.cacheHits.Inc()
			logger.Debug("serving cached leaderboard", "age", age)
			return entry.Data, nil, nil
		}
		logger.Debug("cached leaderboard is stale", "age", age)
	case errors.Is(err, cache.ErrNotFound):
		logger.Debug("leaderboard not cached")
	default:
		// An unreadable cache only costs an extra upstream request.
		logger.Warn("failed to read cached leaderboard", "key", key, "error", err)
	}

	body, err := f.upstream.GetLeaderboard(ctx, year, id)
	if err != nil {
		f.upstreamRequests.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("fetch leaderboard %d/%d: %w", year, id, err)
	}

	// Never cache a document we could not use later.
	lb, err := f.parse(body)
	if err != nil {
		f.upstreamRequests.WithLabelValues("invalid").Inc()
		return nil, nil, fmt.Errorf("validate leaderboard %d/%d: %w", year, id, err)
	}
	f.upstreamRequests.WithLabelValues("ok").Inc()

	if err := f.store.Put(ctx, key, body); err != nil {
		return nil, nil, fmt.Errorf("cache leaderboard %d/%d: %w", year, id, err)
	}
	logger.Info("refreshed leaderboard from upstream", "bytes", len(body))

	return body, lb, nil
}
