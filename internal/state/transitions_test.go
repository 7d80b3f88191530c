package state

import (
	"sync"
	"testing"

	"github.com/futig/docqa/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportPDF() *entity.Document {
	return &entity.Document{Name: "report.pdf", MIMEType: "application/pdf", Content: []byte("%PDF-1.4")}
}

func summarized(t *testing.T) Snapshot {
	t.Helper()

	s := SelectDocument(Snapshot{}, reportPDF())
	s, ticket, err := BeginSummarize(s)
	require.NoError(t, err)

	s, ok := CompleteSummarize(s, ticket, entity.Summary{DocumentID: "doc-1", Text: "A short summary."})
	require.True(t, ok)
	return s
}

func TestSummarizeCompleteCommitsResult(t *testing.T) {
	s := SelectDocument(Snapshot{}, reportPDF())

	s, ticket, err := BeginSummarize(s)
	require.NoError(t, err)
	assert.True(t, s.IsSummarizing)
	assert.Equal(t, FlowSummarize, ticket.Flow)

	s, ok := CompleteSummarize(s, ticket, entity.Summary{DocumentID: "doc-1", Text: "The paper argues X."})
	require.True(t, ok)

	assert.False(t, s.IsSummarizing)
	assert.False(t, s.IsAsking)
	assert.Empty(t, s.ErrorMessage)
	require.True(t, s.HasSummary())
	assert.Equal(t, "doc-1", s.DocumentID())
	assert.Equal(t, "The paper argues X.", s.Summary.Text)
}

func TestSummarizeFailCommitsNothing(t *testing.T) {
	s := summarized(t)
	s = SetQuestion(s, "What is the conclusion?")

	s, ticket, err := BeginSummarize(s)
	require.NoError(t, err)
	afterBegin := s

	s, ok := FailSummarize(s, ticket, entity.MsgSummarizeFailed)
	require.True(t, ok)

	assert.False(t, s.IsSummarizing)
	assert.False(t, s.HasSummary())
	assert.Equal(t, afterBegin.Question, s.Question)
	assert.Equal(t, afterBegin.Answer, s.Answer)
	assert.NotEmpty(t, s.ErrorMessage)
}

func TestFailWithoutMessageUsesGenericOne(t *testing.T) {
	s := summarized(t)
	s, ticket, err := BeginSummarize(s)
	require.NoError(t, err)

	s, ok := FailSummarize(s, ticket, "")
	require.True(t, ok)
	assert.Equal(t, entity.MsgSummarizeFailed, s.ErrorMessage)

	s = SetQuestion(s, "why?")
	s, ticket, err = BeginAsk(s)
	require.NoError(t, err)

	s, ok = FailAsk(s, ticket, "")
	require.True(t, ok)
	assert.Equal(t, entity.MsgAskFailed, s.ErrorMessage)
}

func TestAskCompleteCommitsAnswer(t *testing.T) {
	s := summarized(t)
	s = SetQuestion(s, "What is the conclusion?")

	s, ticket, err := BeginAsk(s)
	require.NoError(t, err)
	assert.True(t, s.IsAsking)

	s, ok := CompleteAsk(s, ticket, "The conclusion is X.")
	require.True(t, ok)

	assert.False(t, s.IsAsking)
	assert.Equal(t, "The conclusion is X.", s.Answer)
	assert.Equal(t, "What is the conclusion?", s.Question)
	assert.Empty(t, s.ErrorMessage)
	assert.Equal(t, "doc-1", s.DocumentID())
}

func TestAskFailKeepsQuestionAndClearsAnswer(t *testing.T) {
	s := summarized(t)
	s = SetQuestion(s, "first?")
	s, ticket, err := BeginAsk(s)
	require.NoError(t, err)
	s, _ = CompleteAsk(s, ticket, "first answer")

	s = SetQuestion(s, "second?")
	assert.Equal(t, "first answer", s.Answer, "editing the question keeps the previous answer")

	s, ticket, err = BeginAsk(s)
	require.NoError(t, err)
	assert.Empty(t, s.Answer)

	s, ok := FailAsk(s, ticket, entity.MsgAskFailed)
	require.True(t, ok)

	assert.False(t, s.IsAsking)
	assert.Empty(t, s.Answer)
	assert.Equal(t, "second?", s.Question)
	assert.Equal(t, entity.MsgAskFailed, s.ErrorMessage)
	assert.True(t, s.HasSummary())
}

func TestSelectDocumentResetsEverything(t *testing.T) {
	tests := []struct {
		name  string
		start func(t *testing.T) Snapshot
	}{
		{
			name:  "empty session",
			start: func(t *testing.T) Snapshot { return Snapshot{} },
		},
		{
			name: "with summary and answer",
			start: func(t *testing.T) Snapshot {
				s := SetQuestion(summarized(t), "q")
				s, ticket, err := BeginAsk(s)
				require.NoError(t, err)
				s, _ = CompleteAsk(s, ticket, "a")
				return s
			},
		},
		{
			name: "with error message",
			start: func(t *testing.T) Snapshot {
				s, _, _ := BeginSummarize(Snapshot{})
				return s
			},
		},
		{
			name: "with both flows pending",
			start: func(t *testing.T) Snapshot {
				s := SetQuestion(summarized(t), "q")
				s, _, err := BeginAsk(s)
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &entity.Document{Name: "next.pdf", MIMEType: "application/pdf"}

			s := SelectDocument(tt.start(t), doc)
			again := SelectDocument(s, doc)

			for _, snap := range []Snapshot{s, again} {
				assert.Same(t, doc, snap.Document)
				assert.Nil(t, snap.Summary)
				assert.Empty(t, snap.Question)
				assert.Empty(t, snap.Answer)
				assert.Empty(t, snap.ErrorMessage)
				assert.False(t, snap.IsSummarizing)
				assert.False(t, snap.IsAsking)
			}
		})
	}
}

func TestBeginSummarizeWithoutDocument(t *testing.T) {
	s, ticket, err := BeginSummarize(Snapshot{})

	require.ErrorIs(t, err, entity.ErrPrecondition)
	require.ErrorIs(t, err, entity.ErrNoDocument)
	assert.Equal(t, Ticket{}, ticket)
	assert.False(t, s.IsSummarizing)
	assert.Equal(t, entity.MsgSelectFileFirst, s.ErrorMessage)
}

func TestBeginAskWithEmptyQuestion(t *testing.T) {
	for _, question := range []string{"", "   ", "\n\t"} {
		s := SetQuestion(summarized(t), question)

		s, _, err := BeginAsk(s)

		require.ErrorIs(t, err, entity.ErrPrecondition)
		require.ErrorIs(t, err, entity.ErrEmptyQuestion)
		assert.False(t, s.IsAsking)
		assert.Equal(t, entity.MsgEnterQuestion, s.ErrorMessage)
	}
}

func TestBeginAskWithoutSummaryIsAllowed(t *testing.T) {
	s := SetQuestion(Snapshot{}, "anything?")

	s, ticket, err := BeginAsk(s)

	require.NoError(t, err)
	assert.True(t, s.IsAsking)
	assert.Empty(t, s.DocumentID())
	assert.Equal(t, FlowAsk, ticket.Flow)
}

func TestBeginWhilePendingIsRejected(t *testing.T) {
	s := SelectDocument(Snapshot{}, reportPDF())
	s, _, err := BeginSummarize(s)
	require.NoError(t, err)

	again, _, err := BeginSummarize(s)
	require.ErrorIs(t, err, entity.ErrFlowInFlight)
	assert.Equal(t, s, again)

	s = SetQuestion(s, "q")
	s, _, err = BeginAsk(s)
	require.NoError(t, err)

	again, _, err = BeginAsk(s)
	require.ErrorIs(t, err, entity.ErrFlowInFlight)
	assert.Equal(t, s, again)
}

func TestErrorClearedWhenEitherFlowBegins(t *testing.T) {
	s := summarized(t)
	s, _, err := BeginAsk(s)
	require.Error(t, err)
	require.NotEmpty(t, s.ErrorMessage)

	s2, _, err := BeginSummarize(s)
	require.NoError(t, err)
	assert.Empty(t, s2.ErrorMessage)

	s3, _, err := BeginAsk(SetQuestion(s, "q"))
	require.NoError(t, err)
	assert.Empty(t, s3.ErrorMessage)
}

func TestStaleSummarizeAfterNewDocumentIsDiscarded(t *testing.T) {
	s := SelectDocument(Snapshot{}, reportPDF())
	s, stale, err := BeginSummarize(s)
	require.NoError(t, err)

	next := &entity.Document{Name: "other.pdf"}
	s = SelectDocument(s, next)
	assert.False(t, s.HasSummary())
	assert.False(t, s.IsSummarizing)

	settled, ok := CompleteSummarize(s, stale, entity.Summary{DocumentID: "doc-1", Text: "old"})
	assert.False(t, ok)
	assert.Equal(t, s, settled)

	settled, ok = FailSummarize(s, stale, "boom")
	assert.False(t, ok)
	assert.Equal(t, s, settled)

	// the new document can be summarized right away
	s, fresh, err := BeginSummarize(s)
	require.NoError(t, err)
	assert.NotEqual(t, stale, fresh)

	s, ok = CompleteSummarize(s, fresh, entity.Summary{DocumentID: "doc-2", Text: "new"})
	require.True(t, ok)
	assert.Same(t, next, s.Document)
	assert.Equal(t, "doc-2", s.DocumentID())
}

func TestStaleAskAfterResummarizeIsDiscarded(t *testing.T) {
	s := SetQuestion(summarized(t), "q")
	s, askTicket, err := BeginAsk(s)
	require.NoError(t, err)

	s, _, err = BeginSummarize(s)
	require.NoError(t, err)
	assert.False(t, s.IsAsking)

	settled, ok := CompleteAsk(s, askTicket, "answer for the old summary")
	assert.False(t, ok)
	assert.Empty(t, settled.Answer)
}

func TestTicketOfOtherFlowIsRejected(t *testing.T) {
	s := SetQuestion(summarized(t), "q")
	s, askTicket, err := BeginAsk(s)
	require.NoError(t, err)

	_, ok := CompleteSummarize(s, askTicket, entity.Summary{DocumentID: "x", Text: "y"})
	assert.False(t, ok)

	_, ok = FailSummarize(s, askTicket, "boom")
	assert.False(t, ok)
}

func TestVersionIncreasesOnAppliedTransitions(t *testing.T) {
	s := SelectDocument(Snapshot{}, reportPDF())
	v := s.Version

	s, ticket, err := BeginSummarize(s)
	require.NoError(t, err)
	assert.Greater(t, s.Version, v)
	v = s.Version

	rejected, _, _ := BeginSummarize(s)
	assert.Equal(t, v, rejected.Version)

	s, _ = CompleteSummarize(s, ticket, entity.Summary{DocumentID: "d", Text: "t"})
	assert.Greater(t, s.Version, v)
}

func TestStoreAppliesTransitions(t *testing.T) {
	store := NewStore()

	_, _, err := store.BeginSummarize()
	require.ErrorIs(t, err, entity.ErrNoDocument)
	assert.Equal(t, entity.MsgSelectFileFirst, store.Snapshot().ErrorMessage)

	store.SelectDocument(reportPDF())
	snap, ticket, err := store.BeginSummarize()
	require.NoError(t, err)
	assert.True(t, snap.IsSummarizing)

	settled, ok := store.CompleteSummarize(ticket, entity.Summary{DocumentID: "doc-1", Text: "s"})
	require.True(t, ok)
	assert.Equal(t, "doc-1", settled.DocumentID())

	current, ok := store.CompleteSummarize(ticket, entity.Summary{DocumentID: "doc-x", Text: "x"})
	require.False(t, ok)
	assert.Equal(t, settled, current)
	assert.Equal(t, "doc-1", store.Snapshot().DocumentID())

	store.SetQuestion("What is the conclusion?")
	_, ticket, err = store.BeginAsk()
	require.NoError(t, err)
	settled, ok = store.CompleteAsk(ticket, "The conclusion is X.")
	require.True(t, ok)
	assert.Equal(t, "The conclusion is X.", settled.Answer)
	assert.Equal(t, "The conclusion is X.", store.Snapshot().Answer)
}

func TestBeginAskWithSetsQuestionAtomically(t *testing.T) {
	s := SelectDocument(Snapshot{}, reportPDF())
	s = SetQuestion(s, "old question")

	s, ticket, err := BeginAskWith(s, "What is the conclusion?")
	require.NoError(t, err)
	assert.Equal(t, FlowAsk, ticket.Flow)
	assert.True(t, s.IsAsking)
	assert.Equal(t, "What is the conclusion?", s.Question)

	again, _, err := BeginAskWith(s, "another question")
	require.ErrorIs(t, err, entity.ErrFlowInFlight)
	assert.Equal(t, s, again)

	_, _, err = BeginAskWith(SelectDocument(s, reportPDF()), "   ")
	require.ErrorIs(t, err, entity.ErrEmptyQuestion)
}

func TestStoreBeginAskWith(t *testing.T) {
	store := NewStore()
	store.SelectDocument(reportPDF())

	snap, ticket, err := store.BeginAskWith("Why?")
	require.NoError(t, err)
	assert.Equal(t, "Why?", snap.Question)
	assert.Equal(t, snap, store.Snapshot())

	settled, ok := store.FailAsk(ticket, "")
	require.True(t, ok)
	assert.Equal(t, entity.MsgAskFailed, settled.ErrorMessage)
	assert.Equal(t, "Why?", settled.Question)
}

func TestStoreConcurrentBeginAdmitsOne(t *testing.T) {
	store := NewStore()
	store.SelectDocument(reportPDF())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.BeginSummarize(); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}
