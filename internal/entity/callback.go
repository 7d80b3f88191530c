package entity

// CallbackEventType represents the type of callback event
type CallbackEventType string

const (
	CallbackEventSummaryReady CallbackEventType = "summaryReady"
	CallbackEventAnswerReady  CallbackEventType = "answerReady"
	CallbackEventDiscarded    CallbackEventType = "discarded"
	CallbackEventError        CallbackEventType = "error"
)

// CallbackEvent is posted to a client's callback URL when a background flow settles.
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackErrorData represents data for error event
type CallbackErrorData struct {
	Error CallbackErrorDetails `json:"error"`
}

// CallbackErrorDetails contains error information
type CallbackErrorDetails struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// FlowRequest is the optional body of the summarize and ask endpoints.
type FlowRequest struct {
	Question    string `json:"question,omitempty"`
	CallbackURL string `json:"callback_url,omitempty" validate:"omitempty,http_url"`
}
