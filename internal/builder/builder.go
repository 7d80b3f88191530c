package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docqa/internal/api"
	sessionapi "github.com/futig/docqa/internal/api/session"
	"github.com/futig/docqa/internal/cli"
	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/integration/callback"
	"github.com/futig/docqa/internal/integration/summarizer"
	"github.com/futig/docqa/internal/pkg/formatter"
	"github.com/futig/docqa/internal/pkg/logger"
	"github.com/futig/docqa/internal/pkg/validator"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/telegram"
	"github.com/futig/docqa/internal/usecase/session"
	"github.com/futig/docqa/internal/watcher"
	"go.uber.org/zap"
)

// core holds what every front end shares.
type core struct {
	cfg       *config.Config
	logger    *zap.Logger
	usecase   *session.SessionUsecase
	validator *validator.Validator
}

type loggerFactory func(level, file string) (*zap.Logger, error)

func buildCore(environment string, forceMocks bool, newLogger loggerFactory) (*core, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if forceMocks {
		cfg.EnableMocks = true
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	var connector session.SummarizerConnector
	if cfg.EnableMocks {
		log.Info("Using mock summarizer connector")
		connector = summarizer.NewMockConnector(log)
	} else {
		log.Info("Using summarizer service", zap.String("url", cfg.SummarizerCfg.Url))
		connector = summarizer.NewConnector(cfg.SummarizerCfg, log)
	}

	usecase := session.NewUsecase(connector, formatter.NewFactory())
	log.Info("Use cases initialized")

	return &core{
		cfg:       cfg,
		logger:    log,
		usecase:   usecase,
		validator: validator.NewFileValidator(cfg.FileUploadCfg),
	}, nil
}

// Build wires the HTTP API server.
func Build(environment string) (*App, error) {
	c, err := buildCore(environment, false, logger.New)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Building application",
		zap.String("environment", c.cfg.Environment),
		zap.String("server_addr", c.cfg.ServerAddr),
	)

	sessionRepo := repository.NewSessionRepository(c.cfg.SessionCfg)
	sessionRepo.OnEvicted(func(id string) {
		c.logger.Debug("Session expired", zap.String("session_id", id))
	})

	callbackConnector := callback.NewConnector(c.cfg.CallbackCfg, c.logger)

	sessionHandler := sessionapi.NewHandler(c.usecase, sessionRepo, c.validator, callbackConnector)
	router := api.SetupRouter(sessionHandler, c.logger)
	c.logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:         c.cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	c.logger.Info("Application built successfully",
		zap.String("environment", c.cfg.Environment),
	)

	return &App{
		server:   server,
		sessions: sessionHandler,
		logger:   c.logger,
	}, nil
}

// CLIOptions are the command line switches of the terminal client.
type CLIOptions struct {
	Environment string
	Watch       bool
	Mock        bool
}

// BuildCLI wires the interactive terminal client. Logs go only to LOG_FILE.
func BuildCLI(opts CLIOptions) (*cli.REPL, *zap.Logger, error) {
	c, err := buildCore(opts.Environment, opts.Mock, logger.NewFileOnly)
	if err != nil {
		return nil, nil, err
	}

	replOpts := cli.Options{
		Usecase: c.usecase,
		Opener:  c.validator,
		Logger:  c.logger,
	}
	if opts.Watch {
		replOpts.NewWatcher = func() (cli.FileWatcher, error) {
			w, err := watcher.NewFileWatcher(watcher.DefaultDebounce, c.logger)
			if err != nil {
				return nil, err
			}
			return w, nil
		}
	}

	return cli.New(replOpts), c.logger, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot(environment string) (telegram.Bot, *zap.Logger, error) {
	c, err := buildCore(environment, false, logger.New)
	if err != nil {
		return nil, nil, err
	}

	if err := c.cfg.ValidateTelegram(); err != nil {
		return nil, nil, err
	}

	c.logger.Info("Building Telegram bot",
		zap.String("environment", c.cfg.Environment),
	)

	sessionRepo := repository.NewSessionRepository(c.cfg.SessionCfg)

	bot, err := telegram.NewBot(c.cfg, sessionRepo, c.usecase, c.validator, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return bot, c.logger, nil
}
