package entity

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type DocumentDTO struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// SessionDTO is the externally visible view of one session snapshot.
type SessionDTO struct {
	ID            string       `json:"session_id"`
	Document      *DocumentDTO `json:"document,omitempty"`
	DocumentID    string       `json:"document_id,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	Question      string       `json:"question"`
	Answer        string       `json:"answer,omitempty"`
	IsSummarizing bool         `json:"is_summarizing"`
	IsAsking      bool         `json:"is_asking"`
	ErrorMessage  string       `json:"error_message,omitempty"`
	Version       uint64       `json:"version"`
	CreatedAt     time.Time    `json:"created_at"`
}

type CreateSessionResponse struct {
	SessionID string      `json:"session_id"`
	State     *SessionDTO `json:"state"`
}

type SetQuestionRequest struct {
	Question string `json:"question"`
}

// FlowResponse is returned when a flow is accepted or rejected by the session.
type FlowResponse struct {
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
	State  *SessionDTO `json:"state"`
}
