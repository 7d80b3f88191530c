package session

import (
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/state"
)

// toSessionDTO converts a session snapshot to its API view
func toSessionDTO(session *repository.Session, snap state.Snapshot) *entity.SessionDTO {
	dto := &entity.SessionDTO{
		ID:            session.ID,
		DocumentID:    snap.DocumentID(),
		Question:      snap.Question,
		Answer:        snap.Answer,
		IsSummarizing: snap.IsSummarizing,
		IsAsking:      snap.IsAsking,
		ErrorMessage:  snap.ErrorMessage,
		Version:       snap.Version,
		CreatedAt:     session.CreatedAt,
	}

	if snap.Document != nil {
		dto.Document = &entity.DocumentDTO{
			Name:     snap.Document.Name,
			MIMEType: snap.Document.MIMEType,
			Size:     snap.Document.Size(),
		}
	}
	if snap.Summary != nil {
		dto.Summary = snap.Summary.Text
	}

	return dto
}
