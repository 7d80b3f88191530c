package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/pkg/logger"
	"github.com/futig/docqa/internal/pkg/response"
	"github.com/futig/docqa/internal/pkg/validator"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/state"
	sessionuc "github.com/futig/docqa/internal/usecase/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the document itself
const formOverhead = 1 << 20

var requestValidator = govalidator.New(govalidator.WithRequiredStructEnabled())

type Handler struct {
	usecase   SessionUsecase
	repo      SessionRepository
	validator *validator.Validator
	callback  CallbackConnector

	// flows started by requests that already returned
	inflight sync.WaitGroup
}

func NewHandler(
	usecase SessionUsecase,
	repo SessionRepository,
	validator *validator.Validator,
	callback CallbackConnector,
) *Handler {
	return &Handler{
		usecase:   usecase,
		repo:      repo,
		validator: validator,
		callback:  callback,
	}
}

// Wait blocks until every background flow has settled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateSession")

	session := h.repo.Create(ctx)

	ctxzap.Info(ctx, "session created", zap.String("session_id", session.ID))

	response.Created(w, entity.CreateSessionResponse{
		SessionID: session.ID,
		State:     toSessionDTO(session, session.Store.Snapshot()),
	})
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "GetSession")
	if !ok {
		return
	}

	ctxzap.Debug(ctx, "fetching session")

	response.Success(w, toSessionDTO(session, session.Store.Snapshot()))
}

// DeleteSession handles DELETE /sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", "DeleteSession"),
	)

	if err := h.repo.Delete(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session deleted")
	response.NoContent(w)
}

// SelectDocument handles PUT /sessions/{id}/document with a multipart "file" field
func (h *Handler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "SelectDocument")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.validator.MaxFileSize()+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.handleUsecaseError(ctx, w, fmt.Errorf("%w: %w", entity.ErrFileTooLarge, err))
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "failed to parse form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "file is required", err)
		return
	}
	defer file.Close()

	if err := h.validator.ValidateFileHeader(header); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	doc, err := h.validator.ReadDocument(header.Filename, file)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	snap := h.usecase.SelectDocument(ctx, session.Store, doc)
	response.Success(w, toSessionDTO(session, snap))
}

// SetQuestion handles PUT /sessions/{id}/question
func (h *Handler) SetQuestion(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "SetQuestion")
	if !ok {
		return
	}

	var req entity.SetQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap := h.usecase.SetQuestion(ctx, session.Store, req.Question)
	response.Success(w, toSessionDTO(session, snap))
}

// Summarize handles POST /sessions/{id}/summarize. The flow settles in the
// background; clients poll GET /sessions/{id} or pass a callback_url.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "Summarize")
	if !ok {
		return
	}

	req, ok := h.decodeFlowRequest(ctx, w, r)
	if !ok {
		return
	}

	flight, err := h.usecase.BeginSummarize(ctx, session.Store)
	h.startFlight(ctx, w, session, flight, err, req.CallbackURL)
}

// Ask handles POST /sessions/{id}/ask. A question in the body replaces the
// current question as part of beginning the flow.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "Ask")
	if !ok {
		return
	}

	req, ok := h.decodeFlowRequest(ctx, w, r)
	if !ok {
		return
	}
	var flight *sessionuc.Flight
	var err error
	if req.Question != "" {
		flight, err = h.usecase.BeginAskWith(ctx, session.Store, req.Question)
	} else {
		flight, err = h.usecase.BeginAsk(ctx, session.Store)
	}
	h.startFlight(ctx, w, session, flight, err, req.CallbackURL)
}

// Export handles GET /sessions/{id}/export?format=markdown|html|pdf|docx
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, session, ok := h.loadSession(w, r, "Export")
	if !ok {
		return
	}

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ExportFormat(formatParam)
	if !format.IsValid() {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("%w: format must be one of: markdown, html, pdf, docx", entity.ErrInvalidFormat))
		return
	}

	file, err := h.usecase.Export(ctx, session.Store.Snapshot(), format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "transcript exported", zap.String("format", formatParam), zap.Int("bytes", len(file.Content)))
	response.Attachment(w, file.Name, file.ContentType, file.Content)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, action string) (context.Context, *repository.Session, bool) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.AddFields(r.Context(),
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)

	session, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return ctx, nil, false
	}
	return ctx, session, true
}

// decodeFlowRequest reads the optional body of a flow endpoint.
func (h *Handler) decodeFlowRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (entity.FlowRequest, bool) {
	var req entity.FlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return req, false
	}
	if err := requestValidator.Struct(req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid callback_url", err)
		return req, false
	}
	return req, true
}

func (h *Handler) startFlight(ctx context.Context, w http.ResponseWriter, session *repository.Session, flight *sessionuc.Flight, err error, callbackURL string) {
	if err != nil {
		snap := session.Store.Snapshot()
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, entity.ErrPrecondition):
			status = http.StatusBadRequest
		case errors.Is(err, entity.ErrFlowInFlight):
			status = http.StatusConflict
		}
		ctxzap.Info(ctx, "flow rejected", zap.Error(err))
		response.JSON(w, status, entity.FlowResponse{
			Status: "rejected",
			Error:  err.Error(),
			State:  toSessionDTO(session, snap),
		})
		return
	}

	requestID := middleware.GetReqID(ctx)

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		bgCtx := logger.AddFields(logger.Detach(ctx),
			zap.String("flow", string(flight.Flow())),
		)
		snap, err := flight.Settle(bgCtx)
		if err != nil {
			ctxzap.Warn(bgCtx, "flow settled with error", zap.Error(err))
		} else {
			ctxzap.Info(bgCtx, "flow settled")
		}

		if callbackURL != "" {
			h.notify(bgCtx, callbackURL, requestID, session, flight.Flow(), snap, err)
		}
	}()

	response.Accepted(w, entity.FlowResponse{
		Status: "accepted",
		State:  toSessionDTO(session, flight.Snapshot()),
	})
}

// notify reports the outcome of a settled flow to the client's callback URL.
func (h *Handler) notify(ctx context.Context, callbackURL, requestID string, session *repository.Session, flow state.Flow, snap state.Snapshot, err error) {
	switch {
	case err == nil:
		event := entity.CallbackEventSummaryReady
		if flow == state.FlowAsk {
			event = entity.CallbackEventAnswerReady
		}
		h.callback.SendResult(ctx, callbackURL, requestID, event, toSessionDTO(session, snap))
	case errors.Is(err, entity.ErrStaleCompletion):
		h.callback.SendResult(ctx, callbackURL, requestID, entity.CallbackEventDiscarded, toSessionDTO(session, snap))
	default:
		h.callback.SendError(ctx, callbackURL, requestID, snap.ErrorMessage, map[string]any{
			"session_id": session.ID,
			"flow":       string(flow),
		})
	}
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	response.JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrNoSummary):
		h.respondError(ctx, w, http.StatusConflict, "summary not available yet", err)
	case errors.Is(err, entity.ErrFileTooLarge):
		h.respondError(ctx, w, http.StatusRequestEntityTooLarge, "file too large", err)
	case errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrInvalidFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrInvalidFormat) || errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
