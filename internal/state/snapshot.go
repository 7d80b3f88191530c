// Package state holds the interaction session of one user: the selected
// document, its summary, the current question/answer pair and the busy and
// error flags of the summarize and ask flows.
//
// Every transition is a pure function from one Snapshot to the next. Store
// serializes those transitions for callers that share a session across
// goroutines.
package state

import "github.com/futig/docqa/internal/entity"

type Flow string

const (
	FlowSummarize Flow = "summarize"
	FlowAsk       Flow = "ask"
)

// Ticket identifies one invocation of a flow. Settling a flow with a ticket
// that no longer matches the snapshot is a no-op.
type Ticket struct {
	Flow Flow
	Seq  uint64
}

// Snapshot is an immutable view of a session. Document and Summary are shared
// between snapshots and must not be modified.
type Snapshot struct {
	Document *entity.Document
	Summary  *entity.Summary

	Question string
	Answer   string

	IsSummarizing bool
	IsAsking      bool
	ErrorMessage  string

	// Version is incremented by every applied transition.
	Version uint64

	summarizeSeq uint64
	askSeq       uint64
}

func (s Snapshot) HasDocument() bool {
	return s.Document != nil
}

func (s Snapshot) HasSummary() bool {
	return s.Summary != nil
}

// DocumentID returns the identifier issued with the summary, or "" when there is none.
func (s Snapshot) DocumentID() string {
	if s.Summary == nil {
		return ""
	}
	return s.Summary.DocumentID
}

// Pending reports whether the given flow is in flight for the current document.
func (s Snapshot) Pending(flow Flow) bool {
	switch flow {
	case FlowSummarize:
		return s.IsSummarizing
	case FlowAsk:
		return s.IsAsking
	default:
		return false
	}
}

// Current reports whether t belongs to the invocation the snapshot is waiting for.
func (s Snapshot) Current(t Ticket) bool {
	switch t.Flow {
	case FlowSummarize:
		return s.IsSummarizing && t.Seq == s.summarizeSeq
	case FlowAsk:
		return s.IsAsking && t.Seq == s.askSeq
	default:
		return false
	}
}
