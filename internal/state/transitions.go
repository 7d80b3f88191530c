package state

import (
	"fmt"
	"strings"

	"github.com/futig/docqa/internal/entity"
)

// SelectDocument replaces the selected document and drops everything derived
// from the previous one. Requests still in flight are orphaned: their tickets
// stop matching and both busy flags are cleared.
func SelectDocument(s Snapshot, doc *entity.Document) Snapshot {
	next := s
	next.Document = doc
	next.Summary = nil
	next.Question = ""
	next.Answer = ""
	next.ErrorMessage = ""
	next.IsSummarizing = false
	next.IsAsking = false
	next.summarizeSeq++
	next.askSeq++
	next.Version++
	return next
}

// SetQuestion updates the editable question text. The current answer is kept
// until the next ask begins.
func SetQuestion(s Snapshot, question string) Snapshot {
	next := s
	next.Question = question
	next.Version++
	return next
}

// BeginSummarize moves the summarize flow to pending. Without a document it
// records a user-facing message and fails with entity.ErrPrecondition.
func BeginSummarize(s Snapshot) (Snapshot, Ticket, error) {
	if s.Document == nil {
		next := s
		next.ErrorMessage = entity.MsgSelectFileFirst
		next.Version++
		return next, Ticket{}, fmt.Errorf("%w: %w", entity.ErrPrecondition, entity.ErrNoDocument)
	}

	if s.IsSummarizing {
		return s, Ticket{}, fmt.Errorf("%w: %s", entity.ErrFlowInFlight, FlowSummarize)
	}

	next := s
	next.IsSummarizing = true
	next.ErrorMessage = ""
	next.Summary = nil
	next.Question = ""
	next.Answer = ""
	// a pending ask targets the summary being replaced
	next.IsAsking = false
	next.askSeq++
	next.summarizeSeq++
	next.Version++

	return next, Ticket{Flow: FlowSummarize, Seq: next.summarizeSeq}, nil
}

// CompleteSummarize commits the summary. It returns false and leaves s
// unchanged when t is stale.
func CompleteSummarize(s Snapshot, t Ticket, summary entity.Summary) (Snapshot, bool) {
	if t.Flow != FlowSummarize || !s.Current(t) {
		return s, false
	}

	next := s
	next.IsSummarizing = false
	next.Summary = &summary
	next.Version++
	return next, true
}

// FailSummarize ends the summarize flow with a user-facing message.
func FailSummarize(s Snapshot, t Ticket, message string) (Snapshot, bool) {
	if t.Flow != FlowSummarize || !s.Current(t) {
		return s, false
	}

	if message == "" {
		message = entity.MsgSummarizeFailed
	}

	next := s
	next.IsSummarizing = false
	next.ErrorMessage = message
	next.Version++
	return next, true
}

// BeginAsk moves the ask flow to pending. The document identifier is not
// checked here; the service decides what an ask without one means.
func BeginAsk(s Snapshot) (Snapshot, Ticket, error) {
	if strings.TrimSpace(s.Question) == "" {
		next := s
		next.ErrorMessage = entity.MsgEnterQuestion
		next.Version++
		return next, Ticket{}, fmt.Errorf("%w: %w", entity.ErrPrecondition, entity.ErrEmptyQuestion)
	}

	if s.IsAsking {
		return s, Ticket{}, fmt.Errorf("%w: %s", entity.ErrFlowInFlight, FlowAsk)
	}

	next := s
	next.IsAsking = true
	next.ErrorMessage = ""
	next.Answer = ""
	next.askSeq++
	next.Version++

	return next, Ticket{Flow: FlowAsk, Seq: next.askSeq}, nil
}

// BeginAskWith replaces the question and moves the ask flow to pending. When
// an ask is already pending the snapshot is returned unchanged.
func BeginAskWith(s Snapshot, question string) (Snapshot, Ticket, error) {
	if s.IsAsking {
		return s, Ticket{}, fmt.Errorf("%w: %s", entity.ErrFlowInFlight, FlowAsk)
	}
	return BeginAsk(SetQuestion(s, question))
}

// CompleteAsk commits the answer. It returns false and leaves s unchanged
// when t is stale.
func CompleteAsk(s Snapshot, t Ticket, answer string) (Snapshot, bool) {
	if t.Flow != FlowAsk || !s.Current(t) {
		return s, false
	}

	next := s
	next.IsAsking = false
	next.Answer = answer
	next.Version++
	return next, true
}

// FailAsk ends the ask flow with a user-facing message.
func FailAsk(s Snapshot, t Ticket, message string) (Snapshot, bool) {
	if t.Flow != FlowAsk || !s.Current(t) {
		return s, false
	}

	if message == "" {
		message = entity.MsgAskFailed
	}

	next := s
	next.IsAsking = false
	next.ErrorMessage = message
	next.Version++
	return next, true
}
