package entity

import "errors"

// Domain errors
var (
	// Precondition errors: the user tried an action without the input it needs
	ErrPrecondition  = errors.New("precondition failed")
	ErrNoDocument    = errors.New("no document selected")
	ErrEmptyQuestion = errors.New("question is empty")

	// Flow errors
	ErrRequest         = errors.New("request to summarizer failed")
	ErrFlowInFlight    = errors.New("flow already in flight")
	ErrStaleCompletion = errors.New("stale completion discarded")
	ErrNoSummary       = errors.New("summary not available")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// File errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Validation errors
	ErrMissingField  = errors.New("required field is missing")
	ErrInvalidFormat = errors.New("invalid format")
)

// User-facing messages written into the session error message.
const (
	MsgSelectFileFirst = "Please select a file first."
	MsgEnterQuestion   = "Please enter a question."
	MsgSummarizeFailed = "An error occurred. Please try again."
	MsgAskFailed       = "An error occurred while getting the answer."
)
