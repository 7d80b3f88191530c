package telegram

import (
	"context"
	"fmt"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/telegram/bot"
	"github.com/futig/docqa/internal/telegram/handlers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes with the Bot API and wires the document Q&A handler.
func NewBot(
	cfg *config.Config,
	sessions handlers.SessionRepository,
	sessionUC handlers.SessionUsecase,
	validator handlers.DocumentValidator,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramCfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	handler := handlers.NewHandler(
		api,
		sessionUC,
		sessions,
		validator,
		handlers.NewTelegramDownloader(api),
		cfg.FileUploadCfg.AllowedExtensions,
		cfg.TelegramCfg.SendRetry,
		logger,
	)

	logger.Info("telegram bot initialized successfully")

	return bot.New(api, &cfg.TelegramCfg, handler, logger), nil
}
