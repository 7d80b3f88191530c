package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	pkgretry "github.com/futig/docqa/internal/pkg/retry"
	"github.com/futig/docqa/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Telegram rejects longer message texts.
const maxMessageLength = 4096

// MessageSender provides centralized message sending functionality
type MessageSender struct {
	bot    BotAPI
	policy pkgretry.Config
}

func NewMessageSender(bot BotAPI, policy pkgretry.Config) *MessageSender {
	return &MessageSender{
		bot:    bot,
		policy: policy,
	}
}

// Send sends text to the chat, split into several messages when it is too long.
func (s *MessageSender) Send(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range render.Split(text, maxMessageLength) {
		if err := s.send(ctx, tgbotapi.NewMessage(chatID, chunk)); err != nil {
			ctxzap.Error(ctx, "failed to send message", zap.Error(err))
			return err
		}
	}
	return nil
}

// SendDocument sends content as a file attachment.
func (s *MessageSender) SendDocument(ctx context.Context, chatID int64, filename string, content []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: content,
	})
	if err := s.send(ctx, doc); err != nil {
		ctxzap.Error(ctx, "failed to send document",
			zap.Error(err),
			zap.String("filename", filename),
		)
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}

func (s *MessageSender) send(ctx context.Context, c tgbotapi.Chattable) error {
	return s.policy.Do(ctx, func() error {
		_, err := s.bot.Send(c)
		return err
	},
		retry.RetryIf(transient),
		retry.DelayType(retryAfter),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying telegram send", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

// transient reports whether the Bot API may accept the same request later.
// Errors without an API code are network failures.
func transient(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

// retryAfter waits as long as a flood-control error asks and backs off otherwise.
func retryAfter(n uint, err error, config *retry.Config) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return retry.BackOffDelay(n, err, config)
}
