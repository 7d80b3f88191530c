package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/pkg/retry"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/state"
	"github.com/futig/docqa/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Message is a normalized incoming chat message.
type Message struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
	// Command is set without the leading slash when the message is a bot command.
	Command  string
	Args     string
	Document *tgbotapi.Document
}

// Handler serves the document Q&A conversation of every chat. Each chat has
// its own session keyed by the chat ID.
type Handler struct {
	api        BotAPI
	sender     *MessageSender
	usecase    SessionUsecase
	sessions   SessionRepository
	validator  DocumentValidator
	downloader FileDownloader
	extensions string
	logger     *zap.Logger
}

func NewHandler(
	api BotAPI,
	usecase SessionUsecase,
	sessions SessionRepository,
	validator DocumentValidator,
	downloader FileDownloader,
	extensions []string,
	sendRetry retry.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		api:        api,
		sender:     NewMessageSender(api, sendRetry),
		usecase:    usecase,
		sessions:   sessions,
		validator:  validator,
		downloader: downloader,
		extensions: strings.Join(extensions, ", "),
		logger:     logger,
	}
}

// Handle routes msg to the command, document or question flow. A returned
// error means the user has not been told what went wrong.
func (h *Handler) Handle(ctx context.Context, msg *Message) error {
	switch {
	case msg.Command != "":
		return h.handleCommand(ctx, msg)
	case msg.Document != nil:
		return h.handleDocument(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		return h.handleQuestion(ctx, msg)
	default:
		return h.sender.Send(ctx, msg.ChatID, render.MsgHelp)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *Message) error {
	switch msg.Command {
	case "start":
		return h.sender.Send(ctx, msg.ChatID, render.MsgWelcome)
	case "help":
		return h.sender.Send(ctx, msg.ChatID, render.MsgHelp)
	case "status":
		session := h.session(ctx, msg.ChatID)
		return h.sender.Send(ctx, msg.ChatID, render.Status(session.Store.Snapshot()))
	case "reset":
		h.sessions.Reset(ctx, repository.ChatKey(msg.ChatID))
		ctxzap.Info(ctx, "session reset")
		return h.sender.Send(ctx, msg.ChatID, render.MsgSessionReset)
	case "export":
		return h.handleExport(ctx, msg)
	default:
		return h.sender.Send(ctx, msg.ChatID, render.MsgUnknownCommand)
	}
}

func (h *Handler) handleDocument(ctx context.Context, msg *Message) error {
	file := msg.Document
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("file_name", file.FileName),
		zap.Int("file_size", file.FileSize),
	))

	if !h.validator.AllowedExtension(file.FileName) {
		return h.sender.Send(ctx, msg.ChatID, fmt.Sprintf(render.MsgUnsupportedFile, h.extensions))
	}

	maxSize := h.validator.MaxFileSize()
	if int64(file.FileSize) > maxSize {
		return h.sender.Send(ctx, msg.ChatID, h.tooLarge())
	}

	data, err := h.downloader.Download(ctx, file.FileID, maxSize)
	if err != nil {
		if errors.Is(err, entity.ErrFileTooLarge) {
			return h.sender.Send(ctx, msg.ChatID, h.tooLarge())
		}
		return fmt.Errorf("download document: %w", err)
	}

	doc, err := h.validator.ReadDocument(file.FileName, bytes.NewReader(data))
	if err != nil {
		ctxzap.Warn(ctx, "document rejected", zap.Error(err))
		switch {
		case errors.Is(err, entity.ErrFileTooLarge):
			return h.sender.Send(ctx, msg.ChatID, h.tooLarge())
		case errors.Is(err, entity.ErrInvalidExtension):
			return h.sender.Send(ctx, msg.ChatID, fmt.Sprintf(render.MsgUnsupportedFile, h.extensions))
		default:
			return h.sender.Send(ctx, msg.ChatID, render.MsgUnreadableFile)
		}
	}

	session := h.session(ctx, msg.ChatID)
	h.usecase.SelectDocument(ctx, session.Store, doc)

	if err := h.sender.Send(ctx, msg.ChatID, fmt.Sprintf(render.MsgSummarizing, doc.Name)); err != nil {
		return err
	}

	stopTyping := startTyping(ctx, h.api, msg.ChatID, h.logger)
	snap, err := h.usecase.Summarize(ctx, session.Store)
	stopTyping()

	switch {
	case err == nil:
		text := fmt.Sprintf(render.MsgSummaryReady, doc.Name, snap.Summary.Text)
		return h.sender.Send(ctx, msg.ChatID, text+"\n\n"+render.MsgAskHint)
	case errors.Is(err, entity.ErrStaleCompletion):
		return h.sender.Send(ctx, msg.ChatID, render.MsgDocumentReplaced)
	case errors.Is(err, entity.ErrFlowInFlight):
		return h.sender.Send(ctx, msg.ChatID, render.MsgBusySummarizing)
	default:
		return h.sendFailure(ctx, msg.ChatID, snap)
	}
}

func (h *Handler) handleQuestion(ctx context.Context, msg *Message) error {
	session := h.session(ctx, msg.ChatID)

	current := session.Store.Snapshot()
	switch {
	case current.IsSummarizing:
		return h.sender.Send(ctx, msg.ChatID, render.MsgBusySummarizing)
	case current.IsAsking:
		return h.sender.Send(ctx, msg.ChatID, render.MsgBusyAsking)
	}

	h.usecase.SetQuestion(ctx, session.Store, strings.TrimSpace(msg.Text))

	stopTyping := startTyping(ctx, h.api, msg.ChatID, h.logger)
	snap, err := h.usecase.Ask(ctx, session.Store)
	stopTyping()

	switch {
	case err == nil:
		return h.sender.Send(ctx, msg.ChatID, fmt.Sprintf(render.MsgAnswer, snap.Answer))
	case errors.Is(err, entity.ErrStaleCompletion):
		return h.sender.Send(ctx, msg.ChatID, render.MsgDocumentReplaced)
	case errors.Is(err, entity.ErrFlowInFlight):
		return h.sender.Send(ctx, msg.ChatID, render.MsgBusyAsking)
	default:
		return h.sendFailure(ctx, msg.ChatID, snap)
	}
}

func (h *Handler) handleExport(ctx context.Context, msg *Message) error {
	format := entity.FormatMarkdown
	if arg := strings.ToLower(strings.TrimSpace(msg.Args)); arg != "" {
		format = entity.ExportFormat(arg)
	}
	if !format.IsValid() {
		return h.sender.Send(ctx, msg.ChatID, render.MsgUnknownFormat)
	}

	session := h.session(ctx, msg.ChatID)
	file, err := h.usecase.Export(ctx, session.Store.Snapshot(), format)
	if err != nil {
		if errors.Is(err, entity.ErrNoSummary) {
			return h.sender.Send(ctx, msg.ChatID, render.MsgNothingToExport)
		}
		return fmt.Errorf("export %s: %w", format, err)
	}

	ctxzap.Info(ctx, "transcript exported",
		zap.String("format", string(format)),
		zap.Int("size", len(file.Content)),
	)
	return h.sender.SendDocument(ctx, msg.ChatID, file.Name, file.Content)
}

// sendFailure reports a failed flow with the message recorded in the session.
func (h *Handler) sendFailure(ctx context.Context, chatID int64, snap state.Snapshot) error {
	text := render.ErrGeneric
	if snap.ErrorMessage != "" {
		text = "❌ " + snap.ErrorMessage
	}
	return h.sender.Send(ctx, chatID, text)
}

func (h *Handler) session(ctx context.Context, chatID int64) *repository.Session {
	return h.sessions.GetOrCreate(ctx, repository.ChatKey(chatID))
}

func (h *Handler) tooLarge() string {
	return fmt.Sprintf(render.MsgFileTooLarge, h.validator.MaxFileSize()/(1<<20))
}
