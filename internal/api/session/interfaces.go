package session

import (
	"context"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/state"
	sessionuc "github.com/futig/docqa/internal/usecase/session"
)

type SessionUsecase interface {
	SelectDocument(ctx context.Context, store *state.Store, doc *entity.Document) state.Snapshot
	SetQuestion(ctx context.Context, store *state.Store, question string) state.Snapshot
	BeginSummarize(ctx context.Context, store *state.Store) (*sessionuc.Flight, error)
	BeginAsk(ctx context.Context, store *state.Store) (*sessionuc.Flight, error)
	BeginAskWith(ctx context.Context, store *state.Store, question string) (*sessionuc.Flight, error)
	Export(ctx context.Context, snap state.Snapshot, format entity.ExportFormat) (*entity.ExportFile, error)
}

type SessionRepository interface {
	Create(ctx context.Context) *repository.Session
	Get(ctx context.Context, id string) (*repository.Session, error)
	Delete(ctx context.Context, id string) error
}

// CallbackConnector delivers flow outcomes to client callback URLs.
type CallbackConnector interface {
	SendResult(ctx context.Context, callbackURL string, requestID string, event entity.CallbackEventType, state *entity.SessionDTO)
	SendError(ctx context.Context, callbackURL string, requestID string, message string, details map[string]any)
}
