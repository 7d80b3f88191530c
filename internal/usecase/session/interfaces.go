package session

import (
	"context"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/pkg/formatter"
)

type SummarizerConnector interface {
	Summarize(ctx context.Context, doc *entity.Document) (*entity.Summary, error)
	Ask(ctx context.Context, req *entity.AskRequest) (string, error)
}

type FormatterFactory interface {
	Create(format entity.ExportFormat) (formatter.Formatter, error)
}
