package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/integration/summarizer"
	"github.com/futig/docqa/internal/pkg/formatter"
	"github.com/futig/docqa/internal/pkg/validator"
	sessionuc "github.com/futig/docqa/internal/usecase/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n"

func init() {
	color.NoColor = true
}

// syncBuffer is written by the REPL and its watch goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writePDF(t *testing.T, dir, name, extra string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(minimalPDF+extra), 0o600))
	return path
}

func newOptions(in io.Reader, out io.Writer) Options {
	return Options{
		Usecase: sessionuc.NewUsecase(summarizer.NewMockConnector(zap.NewNop()), formatter.NewFactory()),
		Opener: validator.NewFileValidator(config.FileUploadConfig{
			MaxFileSize:       1 << 20,
			AllowedExtensions: []string{".pdf"},
		}),
		In:  in,
		Out: out,
	}
}

func TestREPLSession(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "paper.pdf", "")
	exported := filepath.Join(dir, "out.md")

	input := strings.Join([]string{
		":summarize",
		"what is it about?",
		":open " + filepath.Join(dir, "missing.pdf"),
		":open " + pdf,
		"What is the conclusion?",
		":status",
		":export " + exported,
		":export " + filepath.Join(dir, "out.rtf"),
		":bogus",
		":quit",
		"never read",
	}, "\n")

	out := &syncBuffer{}
	repl := New(newOptions(strings.NewReader(input), out))

	require.NoError(t, repl.Run(context.Background(), ""))

	text := out.String()
	assert.Contains(t, text, entity.MsgSelectFileFirst)
	// no summary yet, the service rejects the question
	assert.Contains(t, text, entity.MsgAskFailed)
	assert.Contains(t, text, "cannot open")
	assert.Contains(t, text, "Selected paper.pdf")
	assert.Contains(t, text, "Mock summary of paper.pdf")
	assert.Contains(t, text, `Mock answer to "What is the conclusion?"`)
	assert.Contains(t, text, "Question:    What is the conclusion?")
	assert.Contains(t, text, "Saved "+exported)
	assert.Contains(t, text, "unknown command :bogus")
	assert.NotContains(t, text, "never read")

	content, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(content), "## Answer")

	snap := repl.Store().Snapshot()
	assert.Equal(t, "paper.pdf", snap.Document.Name)
	assert.NotEmpty(t, snap.Answer)
}

func TestREPLInitialFileAndEOF(t *testing.T) {
	pdf := writePDF(t, t.TempDir(), "paper.pdf", "")

	out := &syncBuffer{}
	repl := New(newOptions(strings.NewReader(":export notes.txt\n"), out))

	require.NoError(t, repl.Run(context.Background(), pdf))

	assert.Contains(t, out.String(), "Mock summary of paper.pdf")
	assert.Contains(t, out.String(), "use .md, .html, .pdf or .docx")
	assert.True(t, repl.Store().Snapshot().HasSummary())
}

func TestREPLExportBeforeSummary(t *testing.T) {
	out := &syncBuffer{}
	repl := New(newOptions(strings.NewReader(":export "+filepath.Join(t.TempDir(), "x.md")+"\n"), out))

	require.NoError(t, repl.Run(context.Background(), ""))

	assert.Contains(t, out.String(), "Nothing to export yet")
}

type fakeWatcher struct {
	changes chan string
	watched chan string
	once    sync.Once
}

func (f *fakeWatcher) Watch(ctx context.Context, path string) (<-chan string, error) {
	f.watched <- path
	return f.changes, nil
}

func (f *fakeWatcher) Stop() error {
	f.once.Do(func() { close(f.changes) })
	return nil
}

func TestREPLWatchResummarizesOnChange(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "paper.pdf", "")

	fw := &fakeWatcher{changes: make(chan string), watched: make(chan string, 1)}

	inR, inW := io.Pipe()
	defer inW.Close()
	out := &syncBuffer{}
	opts := newOptions(inR, out)
	opts.NewWatcher = func() (FileWatcher, error) { return fw, nil }
	repl := New(opts)

	done := make(chan error, 1)
	go func() { done <- repl.Run(context.Background(), pdf) }()

	select {
	case got := <-fw.watched:
		assert.Equal(t, pdf, got)
	case <-time.After(2 * time.Second):
		t.Fatal("file was not watched")
	}

	require.Eventually(t, func() bool { return repl.Store().Snapshot().HasSummary() }, 2*time.Second, 10*time.Millisecond)
	firstID := repl.Store().Snapshot().DocumentID()

	writePDF(t, dir, "paper.pdf", "% revised\n")
	fw.changes <- pdf

	require.Eventually(t, func() bool {
		snap := repl.Store().Snapshot()
		return snap.HasSummary() && snap.DocumentID() != firstID
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "changed on disk")

	_, err := inW.Write([]byte(":quit\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("REPL did not exit")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]entity.ExportFormat{
		"a.md":   entity.FormatMarkdown,
		"a.HTML": entity.FormatHTML,
		"a.pdf":  entity.FormatPDF,
		"a.docx": entity.FormatDOCX,
	}
	for path, want := range tests {
		got, err := formatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := formatFromPath("a.txt")
	require.ErrorIs(t, err, entity.ErrInvalidFormat)
}
