package main

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aoc-leaderboard/bot"
)

const pollTimeoutSecs = 30

// telegramBot adapts the Telegram API to the bot and digest packages.
type telegramBot struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

func newTelegramBot(token string, logger *slog.Logger) (*telegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initialize Telegram bot: %w", err)
	}
	logger.Info("telegram bot initialized", "username", api.Self.UserName)
	return &telegramBot{api: api, logger: logger}, nil
}

// SendMessage sends text to chatID and returns the message id.
func (t *telegramBot) SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
	}

	sent, err := t.api.Send(msg)
	if err != nil {
		t.logger.Warn("failed to send message", "chat_id", chatID, "error", err)
		return 0, err
	}
	return int64(sent.MessageID), nil
}

// runBot long-polls Telegram for commands until ctx is cancelled.
func (a *App) runBot(ctx context.Context, sched bot.ScheduleUpdater) {
	handler := a.newCommandHandler(ctx, sched)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSecs
	u.AllowedUpdates = []string{"message"}
	updates := a.telegram.api.GetUpdatesChan(u)

	a.logger.Info("starting bot polling")
	for {
		select {
		case <-ctx.Done():
			a.telegram.api.StopReceivingUpdates()
			a.logger.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			a.logger.Info("received message", "chat_id", msg.Chat.ID, "text", msg.Text)
			if err := handler.Handle(ctx, msg.Chat.ID, msg.Text); err != nil {
				a.logger.Warn("command failed", "chat_id", msg.Chat.ID, "text", msg.Text, "error", err)
			}
		}
	}
}
