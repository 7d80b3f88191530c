package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docqa/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers locally without a summarizer service.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Summarize(ctx context.Context, doc *entity.Document) (*entity.Summary, error) {
	ctxzap.Info(ctx, "[MOCK] summarizing document",
		zap.String("document", doc.Name),
		zap.Int("size", doc.Size()),
	)

	// same content, same identifier
	docID := uuid.NewSHA1(uuid.NameSpaceOID, doc.Content).String()

	return &entity.Summary{
		DocumentID: docID,
		Text: fmt.Sprintf("Mock summary of %s (%s, %d bytes).",
			doc.Name, doc.MIMEType, doc.Size()),
	}, nil
}

func (m *MockConnector) Ask(ctx context.Context, req *entity.AskRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] answering question",
		zap.String("document_id", req.DocumentID),
	)

	if req.DocumentID == "" || strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("ask question: %w: document_id and question", entity.ErrMissingField)
	}

	return fmt.Sprintf("Mock answer to %q for document %s.", req.Question, req.DocumentID), nil
}
