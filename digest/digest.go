// Package digest posts the standings of every tracked leaderboard to the
// configured Telegram chat.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"aoc-leaderboard/bot"
	"aoc-leaderboard/config"
	"aoc-leaderboard/view"
)

// ErrNoChat is returned when neither an option nor the settings name a chat.
var ErrNoChat = errors.New("chat_id not set")

// StandingsSource provides the standings of configured leaderboards.
type StandingsSource interface {
	Leaderboards() []config.LeaderboardConfig
	Standings(ctx context.Context, slug string) (*view.Leaderboard, error)
}

// MessageSender sends messages to Telegram.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error)
}

// SettingsStore reads persistent settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Runner orchestrates the digest workflow.
type Runner struct {
	standings StandingsSource
	sender    MessageSender
	settings  SettingsStore
	chatID    int64
	topN      int
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithChatID sets the Telegram chat ID. It takes precedence over the chat
// registered through /start.
func WithChatID(chatID int64) Option {
	return func(r *Runner) {
		r.chatID = chatID
	}
}

// WithTopN sets the number of members listed per leaderboard.
func WithTopN(n int) Option {
	return func(r *Runner) {
		r.topN = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new digest runner.
func NewRunner(
	standings StandingsSource,
	sender MessageSender,
	settings SettingsStore,
	opts ...Option,
) *Runner {
	r := &Runner{
		standings: standings,
		sender:    sender,
		settings:  settings,
		topN:      10,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run posts one message per leaderboard. A leaderboard that cannot be loaded
// or sent is skipped; Run fails only when nothing was posted.
func (r *Runner) Run(ctx context.Context) error {
	chatID, err := r.resolveChatID(ctx)
	if err != nil {
		return err
	}

	boards := r.standings.Leaderboards()
	r.logger.Info("starting digest run", "chat_id", chatID, "leaderboards", len(boards))

	var (
		sent int
		errs []error
	)
	for _, lb := range boards {
		standings, err := r.standings.Standings(ctx, lb.Slug)
		if err != nil {
			r.logger.Warn("failed to load standings", "slug", lb.Slug, "error", err)
			errs = append(errs, err)
			continue
		}

		msg := bot.FormatStandings(standings, r.topN)
		if _, err := r.sender.SendMessage(ctx, chatID, msg, true); err != nil {
			r.logger.Warn("failed to send standings", "slug", lb.Slug, "error", err)
			errs = append(errs, fmt.Errorf("send %s: %w", lb.Slug, err))
			continue
		}
		sent++
	}

	r.logger.Info("digest run complete", "sent", sent, "failed", len(errs))
	if sent == 0 && len(errs) > 0 {
		return fmt.Errorf("digest: nothing sent: %w", errors.Join(errs...))
	}
	return nil
}

func (r *Runner) resolveChatID(ctx context.Context) (int64, error) {
	if r.chatID != 0 {
		return r.chatID, nil
	}
	if r.settings == nil {
		return 0, ErrNoChat
	}
	stored, err := r.settings.GetSetting(ctx, bot.SettingChatID)
	if err != nil {
		return 0, ErrNoChat
	}
	id, err := strconv.ParseInt(stored, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid stored value %q", ErrNoChat, stored)
	}
	return id, nil
}
