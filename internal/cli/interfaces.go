package cli

import (
	"context"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/state"
)

type SessionUsecase interface {
	SelectDocument(ctx context.Context, store *state.Store, doc *entity.Document) state.Snapshot
	SetQuestion(ctx context.Context, store *state.Store, question string) state.Snapshot
	Summarize(ctx context.Context, store *state.Store) (state.Snapshot, error)
	Ask(ctx context.Context, store *state.Store) (state.Snapshot, error)
	Export(ctx context.Context, snap state.Snapshot, format entity.ExportFormat) (*entity.ExportFile, error)
}

type DocumentOpener interface {
	OpenDocument(path string) (*entity.Document, error)
}

type FileWatcher interface {
	Watch(ctx context.Context, path string) (<-chan string, error)
	Stop() error
}
