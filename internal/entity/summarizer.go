package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentID is the opaque identifier issued by the summarizer service.
// The service may encode it either as a JSON string or as a number.
type DocumentID string

func (id *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: document id %s", ErrInvalidFormat, string(data))
	}
	*id = DocumentID(n.String())
	return nil
}

// SummarizeResponse is the success payload of the summarize endpoint.
// The reference service returns its stored record, so the identifier can
// arrive as "id" instead of "document_id".
type SummarizeResponse struct {
	DocumentID DocumentID `json:"document_id"`
	ID         DocumentID `json:"id"`
	Summary    string     `json:"summary"`
}

// Result converts the payload into a Summary, failing when either field is missing.
func (r *SummarizeResponse) Result() (*Summary, error) {
	docID := r.DocumentID
	if docID == "" {
		docID = r.ID
	}

	if strings.TrimSpace(string(docID)) == "" {
		return nil, fmt.Errorf("%w: document_id", ErrMissingField)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return nil, fmt.Errorf("%w: summary", ErrMissingField)
	}

	return &Summary{DocumentID: string(docID), Text: r.Summary}, nil
}

type AskRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Question   string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

// ServiceError is the error body the summarizer service sends with non-2xx statuses.
type ServiceError struct {
	Error string `json:"error"`
}
