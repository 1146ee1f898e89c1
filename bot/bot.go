package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"aoc-leaderboard/config"
	"aoc-leaderboard/view"
)

// Setting keys shared with the digest runner.
const (
	SettingChatID   = "chat_id"
	SettingPostTime = "post_time"
)

// MessageSender sends messages to Telegram.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error)
}

// SettingsStore manages persistent settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// ScheduleUpdater updates the standings post schedule.
type ScheduleUpdater interface {
	Schedule(timeStr string, fn func()) error
}

// StandingsSource provides the standings of configured leaderboards.
type StandingsSource interface {
	Leaderboards() []config.LeaderboardConfig
	Standings(ctx context.Context, slug string) (*view.Leaderboard, error)
}

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// CommandHandler handles bot commands.
type CommandHandler struct {
	sender       MessageSender
	settings     SettingsStore
	standings    StandingsSource
	topN         int
	schedUpdater ScheduleUpdater
	postJob      func()
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithTopN limits the number of members listed by /standings.
func WithTopN(n int) Option {
	return func(h *CommandHandler) {
		h.topN = n
	}
}

// WithScheduler lets /posttime move the daily post to job at the new time.
func WithScheduler(s ScheduleUpdater, job func()) Option {
	return func(h *CommandHandler) {
		h.schedUpdater = s
		h.postJob = job
	}
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(
	sender MessageSender,
	settings SettingsStore,
	standings StandingsSource,
	opts ...Option,
) *CommandHandler {
	h := &CommandHandler{
		sender:    sender,
		settings:  settings,
		standings: standings,
		topN:      10,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle dispatches a message text to the matching command. Texts that are
// not commands are ignored.
func (h *CommandHandler) Handle(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	cmd, args, _ := strings.Cut(text, " ")
	// Commands addressed to a bot in a group carry its name: /standings@my_bot.
	cmd, _, _ = strings.Cut(cmd, "@")

	switch strings.ToLower(cmd) {
	case "/start", "/help":
		return h.HandleStart(ctx, chatID)
	case "/leaderboards":
		return h.HandleLeaderboards(ctx, chatID)
	case "/standings":
		return h.HandleStandings(ctx, chatID, args)
	case "/posttime":
		return h.HandlePostTime(ctx, chatID, args)
	default:
		return nil
	}
}

// HandleStart handles the /start command.
func (h *CommandHandler) HandleStart(ctx context.Context, chatID int64) error {
	if err := h.settings.SetSetting(ctx, SettingChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("save chat_id: %w", err)
	}

	msg := "Welcome to the Advent of Code leaderboard bot! 🎄\n\n" +
		"This chat will receive the daily standings.\n\n" +
		"Commands:\n" +
		"/leaderboards - List the tracked leaderboards\n" +
		"/standings <name> - Show the current standings\n" +
		"/posttime HH:MM - Change the time of the daily post"

	_, err := h.sender.SendMessage(ctx, chatID, msg, false)
	return err
}

// HandleLeaderboards handles the /leaderboards command.
func (h *CommandHandler) HandleLeaderboards(ctx context.Context, chatID int64) error {
	var sb strings.Builder
	sb.WriteString("Tracked leaderboards:\n\n")
	for _, lb := range h.standings.Leaderboards() {
		name := lb.Name
		if name == "" {
			name = lb.Slug
		}
		fmt.Fprintf(&sb, "• %s (%d): /standings %s\n", name, lb.Year, lb.Slug)
	}

	_, err := h.sender.SendMessage(ctx, chatID, strings.TrimRight(sb.String(), "\n"), false)
	return err
}

// HandleStandings handles the /standings command. The slug may be omitted
// when only one leaderboard is configured.
func (h *CommandHandler) HandleStandings(ctx context.Context, chatID int64, args string) error {
	slug := strings.TrimSpace(args)
	if slug == "" {
		boards := h.standings.Leaderboards()
		if len(boards) != 1 {
			_, err := h.sender.SendMessage(ctx, chatID, "Usage: /standings <name>\nSee /leaderboards for the names.", false)
			return err
		}
		slug = boards[0].Slug
	}

	lb, err := h.standings.Standings(ctx, slug)
	if errors.Is(err, config.ErrUnknownLeaderboard) {
		_, err := h.sender.SendMessage(ctx, chatID, fmt.Sprintf("Unknown leaderboard %q. See /leaderboards.", slug), false)
		return err
	}
	if err != nil {
		if _, sendErr := h.sender.SendMessage(ctx, chatID, "Failed to load the standings, try again later.", false); sendErr != nil {
			return errors.Join(err, sendErr)
		}
		return fmt.Errorf("load standings: %w", err)
	}

	_, err = h.sender.SendMessage(ctx, chatID, FormatStandings(lb, h.topN), true)
	return err
}

// HandlePostTime handles the /posttime command.
func (h *CommandHandler) HandlePostTime(ctx context.Context, chatID int64, args string) error {
	timeStr := strings.TrimSpace(args)
	if !timeRegex.MatchString(timeStr) {
		_, err := h.sender.SendMessage(ctx, chatID, "Invalid time format. Use HH:MM (e.g., 09:00, 18:30)", false)
		return err
	}

	if err := h.settings.SetSetting(ctx, SettingPostTime, timeStr); err != nil {
		return fmt.Errorf("save post_time: %w", err)
	}

	if h.schedUpdater != nil {
		if err := h.schedUpdater.Schedule(timeStr, h.postJob); err != nil {
			return fmt.Errorf("reschedule post: %w", err)
		}
	}

	msg := fmt.Sprintf("✅ Daily standings will be posted at %s", timeStr)
	_, err := h.sender.SendMessage(ctx, chatID, msg, false)
	return err
}

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// FormatStandings formats the top n rows of a leaderboard for display in
// Telegram. n <= 0 lists everybody.
func FormatStandings(lb *view.Leaderboard, n int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎄 <b>%s</b> (%d)\n\n", html.EscapeString(lb.Title), lb.Year)

	rows := lb.Rows
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	if len(rows) == 0 {
		sb.WriteString("<i>Nobody has scored yet.</i>\n")
	}
	for _, row := range rows {
		prefix, ok := medals[row.Place]
		if !ok {
			prefix = fmt.Sprintf("%d.", row.Place)
		}
		fmt.Fprintf(&sb, "%s %s: <b>%d</b> pts, %d ⭐\n",
			prefix, html.EscapeString(row.Name), row.Score, row.StarCount)
	}
	if more := len(lb.Rows) - len(rows); more > 0 {
		fmt.Fprintf(&sb, "<i>and %d more</i>\n", more)
	}

	fmt.Fprintf(&sb, "\n<a href=\"%s\">Official leaderboard</a>", html.EscapeString(lb.OfficialURL))
	return sb.String()
}
