package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/telegram/handlers"
	"github.com/futig/docqa/internal/telegram/middleware"
	"github.com/futig/docqa/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MessageHandler processes one normalized message.
type MessageHandler interface {
	Handle(ctx context.Context, msg *handlers.Message) error
}

// Bot receives updates by long polling and runs each one in its own goroutine.
type Bot struct {
	api         *tgbotapi.BotAPI
	cfg         *config.TelegramConfig
	handler     MessageHandler
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	cancel      context.CancelFunc
	done        chan struct{}
	wg          sync.WaitGroup
}

func New(
	api *tgbotapi.BotAPI,
	cfg *config.TelegramConfig,
	handler MessageHandler,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:        api,
		cfg:        cfg,
		handler:    handler,
		logger:     logger,
		loggingMW:  middleware.NewLoggingMiddleware(logger),
		recoveryMW: middleware.NewRecoveryMiddleware(api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(
			cfg.RateLimitPerMinute,
			cfg.RateLimitBurst,
			api,
			logger,
		),
		done: make(chan struct{}),
	}
}

// Start begins polling. It returns immediately; updates are handled until
// ctx is done or Stop is called.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx, b.cancel = context.WithCancel(ctxzap.ToContext(ctx, b.logger))
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops polling and waits for in-flight updates up to the shutdown timeout.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.api.StopReceivingUpdates()
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	b.rateLimitMW.Close()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	defer close(b.done)

	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				// handlers outlive the polling context so Stop can drain them
				b.dispatch(context.WithoutCancel(ctx), update)
			}()
		}
	}
}

// dispatch runs update through rate limiting, logging and panic recovery.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(ctx, update, func(ctx context.Context, u tgbotapi.Update) {
		b.loggingMW.Handle(ctx, u, func(ctx context.Context, u tgbotapi.Update) {
			b.recoveryMW.Handle(ctx, u, b.handleUpdate)
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	msg := &handlers.Message{
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      message.Text,
		Document:  message.Document,
	}
	if message.From != nil {
		msg.UserID = message.From.ID
	}
	if message.IsCommand() {
		msg.Command = message.Command()
		msg.Args = message.CommandArguments()
	}

	if err := b.handler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "handler error", zap.Error(err))
		b.sendError(ctx, msg.ChatID)
	}
}

func (b *Bot) sendError(ctx context.Context, chatID int64) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, render.ErrGeneric)); err != nil {
		ctxzap.Error(ctx, "failed to send error message", zap.Error(err))
	}
}
