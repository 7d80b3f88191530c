package handlers

import (
	"context"
	"io"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the handlers use.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SessionUsecase interface {
	SelectDocument(ctx context.Context, store *state.Store, doc *entity.Document) state.Snapshot
	SetQuestion(ctx context.Context, store *state.Store, question string) state.Snapshot
	Summarize(ctx context.Context, store *state.Store) (state.Snapshot, error)
	Ask(ctx context.Context, store *state.Store) (state.Snapshot, error)
	Export(ctx context.Context, snap state.Snapshot, format entity.ExportFormat) (*entity.ExportFile, error)
}

// SessionRepository keys sessions by chat.
type SessionRepository interface {
	GetOrCreate(ctx context.Context, key string) *repository.Session
	Reset(ctx context.Context, key string) *repository.Session
}

type DocumentValidator interface {
	AllowedExtension(name string) bool
	ReadDocument(name string, r io.Reader) (*entity.Document, error)
	MaxFileSize() int64
}

type FileDownloader interface {
	Download(ctx context.Context, fileID string, maxSize int64) ([]byte, error)
}
