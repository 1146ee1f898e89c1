// Package standings resolves configured leaderboards to ready-to-render
// standings.
package standings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itbasis/go-clock"

	"aoc-leaderboard/config"
	"aoc-leaderboard/scoreboard"
	"aoc-leaderboard/view"
)

// Scoreboards produces the scored board of one leaderboard.
type Scoreboards interface {
	Scoreboard(ctx context.Context, year, id int) (*scoreboard.Scoreboard, error)
}

// Service is safe for concurrent use as long as the Scoreboards source is.
type Service struct {
	cfg    *config.Config
	source Scoreboards
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock deciding which puzzles are released.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a service for the leaderboards of cfg.
func NewService(cfg *config.Config, source Scoreboards, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		source: source,
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Leaderboards returns the configured leaderboards in configuration order.
func (s *Service) Leaderboards() []config.LeaderboardConfig {
	return s.cfg.Leaderboards
}

// Standings returns the current standings of the leaderboard published under
// slug. Unknown slugs yield config.ErrUnknownLeaderboard.
func (s *Service) Standings(ctx context.Context, slug string) (*view.Leaderboard, error) {
	lb, err := s.cfg.LeaderboardBySlug(slug)
	if err != nil {
		return nil, err
	}

	sb, err := s.source.Scoreboard(ctx, lb.Year, lb.ID)
	if err != nil {
		return nil, fmt.Errorf("standings %s: %w", slug, err)
	}

	return view.New(*lb, s.cfg.MetadataFor(lb.Year), sb, s.clock.Now()), nil
}

// All returns the standings of every configured leaderboard. A failing
// leaderboard does not prevent the others from being returned; the joined
// error lists every failure.
func (s *Service) All(ctx context.Context) ([]*view.Leaderboard, error) {
	var (
		out  []*view.Leaderboard
		errs []error
	)
	for _, lb := range s.cfg.Leaderboards {
		v, err := s.Standings(ctx, lb.Slug)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(errs...)
}

// Warm refreshes every leaderboard whose cached copy is stale.
func (s *Service) Warm(ctx context.Context) error {
	var errs []error
	for _, lb := range s.cfg.Leaderboards {
		if _, err := s.source.Scoreboard(ctx, lb.Year, lb.ID); err != nil {
			s.logger.Warn("failed to warm leaderboard", "slug", lb.Slug, "year", lb.Year, "id", lb.ID, "error", err)
			errs = append(errs, fmt.Errorf("warm %s: %w", lb.Slug, err))
		}
	}
	return errors.Join(errs...)
}
