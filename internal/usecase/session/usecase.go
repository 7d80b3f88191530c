package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/pkg/formatter"
	"github.com/futig/docqa/internal/state"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// SessionUsecase drives the summarize and ask flows of a session against the
// summarizer service.
type SessionUsecase struct {
	connector SummarizerConnector
	formatter FormatterFactory
}

func NewUsecase(
	connector SummarizerConnector,
	formatter FormatterFactory,
) *SessionUsecase {
	return &SessionUsecase{
		connector: connector,
		formatter: formatter,
	}
}

// Flight is a flow that has been marked pending and still has to reach the service.
type Flight struct {
	uc     *SessionUsecase
	store  *state.Store
	ticket state.Ticket
	// inputs captured when the flow began
	document   *entity.Document
	documentID string
	question   string

	snapshot state.Snapshot
}

// Snapshot is the session right after the flow began.
func (f *Flight) Snapshot() state.Snapshot {
	return f.snapshot
}

func (f *Flight) Flow() state.Flow {
	return f.ticket.Flow
}

// Settle performs the request and commits its outcome. The returned snapshot
// is the one the commit produced. It returns entity.ErrStaleCompletion when
// the session moved on while the request was outstanding; the session is then
// left untouched.
func (f *Flight) Settle(ctx context.Context) (state.Snapshot, error) {
	switch f.ticket.Flow {
	case state.FlowSummarize:
		return f.uc.settleSummarize(ctx, f)
	case state.FlowAsk:
		return f.uc.settleAsk(ctx, f)
	default:
		return f.store.Snapshot(), fmt.Errorf("unknown flow %q", f.ticket.Flow)
	}
}

// SelectDocument makes doc the selected document and resets everything derived from the previous one.
func (uc *SessionUsecase) SelectDocument(ctx context.Context, store *state.Store, doc *entity.Document) state.Snapshot {
	snap := store.SelectDocument(doc)
	if doc != nil {
		ctxzap.Info(ctx, "document selected",
			zap.String("document", doc.Name),
			zap.Int("size", doc.Size()),
		)
	}
	return snap
}

func (uc *SessionUsecase) SetQuestion(ctx context.Context, store *state.Store, question string) state.Snapshot {
	return store.SetQuestion(question)
}

// BeginSummarize marks the summarize flow pending. Precondition failures are
// recorded in the session and returned without contacting the service.
func (uc *SessionUsecase) BeginSummarize(ctx context.Context, store *state.Store) (*Flight, error) {
	snap, ticket, err := store.BeginSummarize()
	if err != nil {
		ctxzap.Info(ctx, "summarize rejected", zap.Error(err))
		return nil, err
	}

	return &Flight{
		uc:       uc,
		store:    store,
		ticket:   ticket,
		document: snap.Document,
		snapshot: snap,
	}, nil
}

// BeginAsk marks the ask flow pending with the current question.
func (uc *SessionUsecase) BeginAsk(ctx context.Context, store *state.Store) (*Flight, error) {
	return uc.beginAsk(ctx, store, store.BeginAsk)
}

// BeginAskWith replaces the question and marks the ask flow pending in one step.
func (uc *SessionUsecase) BeginAskWith(ctx context.Context, store *state.Store, question string) (*Flight, error) {
	return uc.beginAsk(ctx, store, func() (state.Snapshot, state.Ticket, error) {
		return store.BeginAskWith(question)
	})
}

func (uc *SessionUsecase) beginAsk(ctx context.Context, store *state.Store, begin func() (state.Snapshot, state.Ticket, error)) (*Flight, error) {
	snap, ticket, err := begin()
	if err != nil {
		ctxzap.Info(ctx, "ask rejected", zap.Error(err))
		return nil, err
	}

	return &Flight{
		uc:         uc,
		store:      store,
		ticket:     ticket,
		documentID: snap.DocumentID(),
		question:   snap.Question,
		snapshot:   snap,
	}, nil
}

// Summarize runs the whole summarize flow and returns the resulting session.
func (uc *SessionUsecase) Summarize(ctx context.Context, store *state.Store) (state.Snapshot, error) {
	flight, err := uc.BeginSummarize(ctx, store)
	if err != nil {
		return store.Snapshot(), err
	}
	return flight.Settle(ctx)
}

// Ask runs the whole ask flow and returns the resulting session.
func (uc *SessionUsecase) Ask(ctx context.Context, store *state.Store) (state.Snapshot, error) {
	flight, err := uc.BeginAsk(ctx, store)
	if err != nil {
		return store.Snapshot(), err
	}
	return flight.Settle(ctx)
}

func (uc *SessionUsecase) settleSummarize(ctx context.Context, f *Flight) (state.Snapshot, error) {
	summary, err := uc.connector.Summarize(ctx, f.document)
	if err != nil {
		snap, ok := f.store.FailSummarize(f.ticket, entity.MsgSummarizeFailed)
		if !ok {
			return snap, uc.stale(ctx, f, err)
		}
		ctxzap.Error(ctx, "summarize failed", zap.Error(err))
		return snap, fmt.Errorf("%w: %w", entity.ErrRequest, err)
	}

	snap, ok := f.store.CompleteSummarize(f.ticket, *summary)
	if !ok {
		return snap, uc.stale(ctx, f, nil)
	}

	ctxzap.Info(ctx, "summary stored", zap.String("document_id", summary.DocumentID))
	return snap, nil
}

func (uc *SessionUsecase) settleAsk(ctx context.Context, f *Flight) (state.Snapshot, error) {
	answer, err := uc.connector.Ask(ctx, &entity.AskRequest{
		DocumentID: f.documentID,
		Question:   f.question,
	})
	if err != nil {
		snap, ok := f.store.FailAsk(f.ticket, entity.MsgAskFailed)
		if !ok {
			return snap, uc.stale(ctx, f, err)
		}
		ctxzap.Error(ctx, "ask failed", zap.Error(err))
		return snap, fmt.Errorf("%w: %w", entity.ErrRequest, err)
	}

	snap, ok := f.store.CompleteAsk(f.ticket, answer)
	if !ok {
		return snap, uc.stale(ctx, f, nil)
	}

	ctxzap.Info(ctx, "answer stored", zap.Int("answer_length", len(answer)))
	return snap, nil
}

func (uc *SessionUsecase) stale(ctx context.Context, f *Flight, cause error) error {
	fields := []zap.Field{
		zap.String("flow", string(f.ticket.Flow)),
		zap.Uint64("seq", f.ticket.Seq),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	ctxzap.Warn(ctx, "discarding stale completion", fields...)
	return entity.ErrStaleCompletion
}

// Transcript returns the exportable view of snap. It fails with
// entity.ErrNoSummary until a summary is available.
func (uc *SessionUsecase) Transcript(snap state.Snapshot) (*entity.Transcript, error) {
	if !snap.HasSummary() {
		return nil, entity.ErrNoSummary
	}

	tr := &entity.Transcript{
		DocumentID: snap.Summary.DocumentID,
		Summary:    snap.Summary.Text,
		Question:   snap.Question,
		Answer:     snap.Answer,
	}
	if snap.Document != nil {
		tr.DocumentName = snap.Document.Name
	}
	return tr, nil
}

// Export renders the session transcript in the requested format.
func (uc *SessionUsecase) Export(ctx context.Context, snap state.Snapshot, format entity.ExportFormat) (*entity.ExportFile, error) {
	tr, err := uc.Transcript(snap)
	if err != nil {
		return nil, err
	}

	f, err := uc.formatter.Create(format)
	if err != nil {
		return nil, err
	}

	content, err := f.Format(tr)
	if err != nil {
		ctxzap.Error(ctx, "export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, fmt.Errorf("format transcript: %w", err)
	}

	return &entity.ExportFile{
		Name:        formatter.FileName(tr, f),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}

// IsPrecondition reports whether err is a user-correctable precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, entity.ErrPrecondition)
}
