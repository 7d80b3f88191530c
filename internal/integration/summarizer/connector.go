package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/integration/common"
	pkghttp "github.com/futig/docqa/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.SummarizerConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.SummarizerConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Summarize uploads the document and returns its summary and identifier.
// POST {summarize_endpoint} with multipart/form-data, one file field
func (c *Connector) Summarize(ctx context.Context, doc *entity.Document) (*entity.Summary, error) {
	ctxzap.Info(ctx, "submitting document for summary",
		zap.String("document", doc.Name),
		zap.Int("size", doc.Size()),
	)

	file := pkghttp.FilePart{
		Field:       c.config.FileField,
		Filename:    doc.Name,
		ContentType: doc.MIMEType,
		Content:     doc.Content,
	}

	var resp entity.SummarizeResponse
	err := c.connector.DoFileUpload(ctx, http.MethodPost, c.config.SummarizeEndpoint, []pkghttp.FilePart{file}, &resp)
	if err != nil {
		ctxzap.Error(ctx, "summarize request failed",
			zap.Error(err),
			zap.String("service_error", serviceMessage(err)),
		)
		return nil, fmt.Errorf("summarize document: %w", err)
	}

	summary, err := resp.Result()
	if err != nil {
		ctxzap.Error(ctx, "invalid summarize response", zap.Error(err))
		return nil, fmt.Errorf("invalid summarize response: %w", err)
	}

	ctxzap.Info(ctx, "document summarized",
		zap.String("document_id", summary.DocumentID),
		zap.Int("summary_length", len(summary.Text)),
	)

	return summary, nil
}

// Ask asks a question about a previously summarized document.
// POST {ask_endpoint} with {"document_id", "question"}
func (c *Connector) Ask(ctx context.Context, req *entity.AskRequest) (string, error) {
	ctxzap.Info(ctx, "asking question", zap.String("document_id", req.DocumentID))

	var resp entity.AskResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.AskEndpoint, req, &resp)
	if err != nil {
		ctxzap.Error(ctx, "ask request failed",
			zap.Error(err),
			zap.String("service_error", serviceMessage(err)),
		)
		return "", fmt.Errorf("ask question: %w", err)
	}

	if resp.Answer == "" {
		return "", fmt.Errorf("invalid ask response: %w: answer", entity.ErrMissingField)
	}

	ctxzap.Info(ctx, "question answered", zap.Int("answer_length", len(resp.Answer)))

	return resp.Answer, nil
}

// serviceMessage extracts the "error" field the service puts in failure bodies.
func serviceMessage(err error) string {
	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) {
		return ""
	}

	var body entity.ServiceError
	if json.Unmarshal([]byte(httpErr.Message), &body) != nil {
		return ""
	}
	return body.Error
}
