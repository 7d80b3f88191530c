package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram shows a chat action for 5 seconds
const typingInterval = 4 * time.Second

// startTyping shows the "typing" action in the chat until the returned
// function is called or ctx is done.
func startTyping(ctx context.Context, bot BotAPI, chatID int64, logger *zap.Logger) func() {
	send := func() {
		action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
		if _, err := bot.Request(action); err != nil {
			logger.Warn("failed to send typing action",
				zap.Error(err),
				zap.Int64("chat_id", chatID),
			)
		}
	}

	send()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				send()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
