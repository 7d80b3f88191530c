package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Next continues the middleware chain.
type Next func(ctx context.Context, update tgbotapi.Update)

// Sender delivers messages to a chat.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// origin returns the user and chat an update came from.
func origin(update tgbotapi.Update) (userID, chatID int64, ok bool) {
	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat == nil {
		return 0, 0, false
	}
	if msg.From != nil {
		userID = msg.From.ID
	}
	return userID, msg.Chat.ID, true
}

func notify(sender Sender, chatID int64, text string) error {
	_, err := sender.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
