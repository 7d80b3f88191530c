package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/integration/summarizer"
	"github.com/futig/docqa/internal/pkg/formatter"
	"github.com/futig/docqa/internal/pkg/retry"
	"github.com/futig/docqa/internal/pkg/validator"
	"github.com/futig/docqa/internal/repository"
	"github.com/futig/docqa/internal/telegram/render"
	sessionuc "github.com/futig/docqa/internal/usecase/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chatID int64 = 100

type sentDocument struct {
	name    string
	content []byte
}

type fakeBot struct {
	mu        sync.Mutex
	texts     []string
	documents []sentDocument
	actions   int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		b.texts = append(b.texts, m.Text)
	case tgbotapi.DocumentConfig:
		file := m.File.(tgbotapi.FileBytes)
		b.documents = append(b.documents, sentDocument{name: file.Name, content: file.Bytes})
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		b.actions++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) Texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.texts...)
}

func (b *fakeBot) Last() string {
	texts := b.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeDownloader struct {
	files map[string][]byte
	err   error
	calls int
}

func (d *fakeDownloader) Download(ctx context.Context, fileID string, maxSize int64) ([]byte, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.files[fileID], nil
}

type failingConnector struct{}

func (failingConnector) Summarize(ctx context.Context, doc *entity.Document) (*entity.Summary, error) {
	return nil, errors.New("connection refused")
}

func (failingConnector) Ask(ctx context.Context, req *entity.AskRequest) (string, error) {
	return "", errors.New("connection refused")
}

type fixture struct {
	bot        *fakeBot
	downloader *fakeDownloader
	handler    *Handler
}

func newFixture(t *testing.T, conn sessionuc.SummarizerConnector) *fixture {
	t.Helper()

	if conn == nil {
		conn = summarizer.NewMockConnector(zap.NewNop())
	}

	uploads := config.FileUploadConfig{MaxFileSize: 1 << 20, AllowedExtensions: []string{".txt", ".pdf"}}
	bot := &fakeBot{}
	downloader := &fakeDownloader{files: map[string][]byte{
		"notes":    []byte("Meeting notes.\nThe budget was approved."),
		"fake-pdf": []byte("just some text"),
	}}

	handler := NewHandler(
		bot,
		sessionuc.NewUsecase(conn, formatter.NewFactory()),
		repository.NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}),
		validator.NewFileValidator(uploads),
		downloader,
		uploads.AllowedExtensions,
		retry.Config{Attempts: 1},
		zap.NewNop(),
	)

	return &fixture{bot: bot, downloader: downloader, handler: handler}
}

func (f *fixture) handle(t *testing.T, msg *Message) {
	t.Helper()
	msg.ChatID = chatID
	require.NoError(t, f.handler.Handle(context.Background(), msg))
}

func (f *fixture) sendNotes(t *testing.T) {
	f.handle(t, &Message{Document: &tgbotapi.Document{FileID: "notes", FileName: "notes.txt", FileSize: 40}})
}

func TestStartAndHelp(t *testing.T) {
	f := newFixture(t, nil)

	f.handle(t, &Message{Command: "start"})
	f.handle(t, &Message{Command: "help"})
	f.handle(t, &Message{Command: "nope"})

	assert.Equal(t, []string{render.MsgWelcome, render.MsgHelp, render.MsgUnknownCommand}, f.bot.Texts())
}

func TestDocumentIsSummarized(t *testing.T) {
	f := newFixture(t, nil)

	f.sendNotes(t)

	texts := f.bot.Texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "📄 Got notes.txt, summarizing...", texts[0])
	assert.Contains(t, texts[1], "Summary of notes.txt")
	assert.Contains(t, texts[1], "Mock summary of notes.txt")
	assert.True(t, strings.HasSuffix(texts[1], render.MsgAskHint))
	assert.GreaterOrEqual(t, f.bot.actions, 1)
}

func TestDocumentRejectedBeforeDownload(t *testing.T) {
	tests := []struct {
		name string
		doc  *tgbotapi.Document
		want string
	}{
		{
			name: "unsupported extension",
			doc:  &tgbotapi.Document{FileID: "x", FileName: "photo.png", FileSize: 10},
			want: "❌ I can only read .txt, .pdf files.",
		},
		{
			name: "too large",
			doc:  &tgbotapi.Document{FileID: "x", FileName: "big.pdf", FileSize: 2 << 20},
			want: "❌ The file is too large (max 1 MB).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			f.handle(t, &Message{Document: tt.doc})

			assert.Equal(t, []string{tt.want}, f.bot.Texts())
			assert.Zero(t, f.downloader.calls)
		})
	}
}

func TestDocumentWithWrongContentIsRejected(t *testing.T) {
	f := newFixture(t, nil)

	f.handle(t, &Message{Document: &tgbotapi.Document{FileID: "fake-pdf", FileName: "report.pdf", FileSize: 14}})

	assert.Equal(t, []string{render.MsgUnreadableFile}, f.bot.Texts())
	f.handle(t, &Message{Command: "status"})
	assert.Contains(t, f.bot.Last(), "No document yet")
}

func TestDownloadFailureIsReturned(t *testing.T) {
	f := newFixture(t, nil)
	f.downloader.err = errors.New("telegram unavailable")

	err := f.handler.Handle(context.Background(), &Message{
		ChatID:   chatID,
		Document: &tgbotapi.Document{FileID: "notes", FileName: "notes.txt", FileSize: 40},
	})

	require.Error(t, err)
	assert.Empty(t, f.bot.Texts())
}

func TestQuestionIsAnswered(t *testing.T) {
	f := newFixture(t, nil)
	f.sendNotes(t)

	f.handle(t, &Message{Text: "  Was the budget approved?  "})

	last := f.bot.Last()
	assert.True(t, strings.HasPrefix(last, "💬 "))
	assert.Contains(t, last, `"Was the budget approved?"`)

	f.handle(t, &Message{Command: "status"})
	assert.Contains(t, f.bot.Last(), "❓ Was the budget approved?")
}

func TestQuestionWithoutDocumentReportsServiceFailure(t *testing.T) {
	f := newFixture(t, nil)

	f.handle(t, &Message{Text: "anything?"})

	assert.Equal(t, []string{"❌ " + entity.MsgAskFailed}, f.bot.Texts())
}

func TestSummarizeFailureIsReported(t *testing.T) {
	f := newFixture(t, failingConnector{})

	f.sendNotes(t)

	texts := f.bot.Texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "❌ "+entity.MsgSummarizeFailed, texts[1])

	f.handle(t, &Message{Command: "status"})
	assert.Contains(t, f.bot.Last(), "Not summarized yet")
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)

	f.handle(t, &Message{Command: "export"})
	assert.Equal(t, render.MsgNothingToExport, f.bot.Last())

	f.sendNotes(t)
	f.handle(t, &Message{Command: "export", Args: "yaml"})
	assert.Equal(t, render.MsgUnknownFormat, f.bot.Last())

	f.handle(t, &Message{Command: "export", Args: "HTML"})
	f.handle(t, &Message{Command: "export"})

	require.Len(t, f.bot.documents, 2)
	assert.True(t, strings.HasSuffix(f.bot.documents[0].name, ".html"))
	assert.Contains(t, string(f.bot.documents[0].content), "Mock summary of notes.txt")
	assert.True(t, strings.HasSuffix(f.bot.documents[1].name, ".md"))
}

func TestResetForgetsDocument(t *testing.T) {
	f := newFixture(t, nil)
	f.sendNotes(t)

	f.handle(t, &Message{Command: "reset"})
	assert.Equal(t, render.MsgSessionReset, f.bot.Last())

	f.handle(t, &Message{Command: "status"})
	assert.Equal(t, "No document yet. Send one to get started.", f.bot.Last())
}

func TestChatsHaveSeparateSessions(t *testing.T) {
	f := newFixture(t, nil)
	f.sendNotes(t)

	require.NoError(t, f.handler.Handle(context.Background(), &Message{ChatID: chatID + 1, Command: "status"}))

	assert.Equal(t, "No document yet. Send one to get started.", f.bot.Last())
}
