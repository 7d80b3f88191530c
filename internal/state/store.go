package state

import (
	"sync"

	"github.com/futig/docqa/internal/entity"
)

// Store is the single mutable holder of a session snapshot.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) SelectDocument(doc *entity.Document) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = SelectDocument(s.snap, doc)
	return s.snap
}

func (s *Store) SetQuestion(question string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = SetQuestion(s.snap, question)
	return s.snap
}

func (s *Store) BeginSummarize() (Snapshot, Ticket, error) {
	return s.begin(BeginSummarize)
}

func (s *Store) BeginAsk() (Snapshot, Ticket, error) {
	return s.begin(BeginAsk)
}

// BeginAskWith sets the question and begins the ask flow in one transition.
func (s *Store) BeginAskWith(question string) (Snapshot, Ticket, error) {
	return s.begin(func(snap Snapshot) (Snapshot, Ticket, error) {
		return BeginAskWith(snap, question)
	})
}

// CompleteSummarize and the other settle methods return the snapshot their
// transition produced, which is the current one when the ticket was stale.
func (s *Store) CompleteSummarize(t Ticket, summary entity.Summary) (Snapshot, bool) {
	return s.settle(func(snap Snapshot) (Snapshot, bool) {
		return CompleteSummarize(snap, t, summary)
	})
}

func (s *Store) FailSummarize(t Ticket, message string) (Snapshot, bool) {
	return s.settle(func(snap Snapshot) (Snapshot, bool) {
		return FailSummarize(snap, t, message)
	})
}

func (s *Store) CompleteAsk(t Ticket, answer string) (Snapshot, bool) {
	return s.settle(func(snap Snapshot) (Snapshot, bool) {
		return CompleteAsk(snap, t, answer)
	})
}

func (s *Store) FailAsk(t Ticket, message string) (Snapshot, bool) {
	return s.settle(func(snap Snapshot) (Snapshot, bool) {
		return FailAsk(snap, t, message)
	})
}

func (s *Store) begin(transition func(Snapshot) (Snapshot, Ticket, error)) (Snapshot, Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ticket, err := transition(s.snap)
	s.snap = next
	return next, ticket, err
}

func (s *Store) settle(transition func(Snapshot) (Snapshot, bool)) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied := transition(s.snap)
	s.snap = next
	return next, applied
}
