// Package cli is the interactive terminal front end of a single session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/state"
	"go.uber.org/zap"
)

const helpText = `Type a question and press Enter to ask it.
Commands:
  :open <path>     select a document (and summarize it)
  :summarize       summarize the selected document again
  :status          show the session
  :export <path>   save summary and answer (.md, .html, .pdf, .docx)
  :help            show this help
  :quit            exit`

type Options struct {
	Usecase SessionUsecase
	Opener  DocumentOpener
	// NewWatcher is called for every opened file when watching is enabled.
	NewWatcher func() (FileWatcher, error)
	In         io.Reader
	Out        io.Writer
	Logger     *zap.Logger
}

type REPL struct {
	usecase    SessionUsecase
	opener     DocumentOpener
	newWatcher func() (FileWatcher, error)
	store      *state.Store
	in         io.Reader
	logger     *zap.Logger

	// guards out and the watch fields
	mu          sync.Mutex
	out         io.Writer
	stopWatch   func()
	watchTarget string
	// watch goroutines, waited for on exit
	wg sync.WaitGroup

	prompt  *color.Color
	okColor *color.Color
	errText *color.Color
	dim     *color.Color
}

func New(opts Options) *REPL {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = color.Output
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &REPL{
		usecase:    opts.Usecase,
		opener:     opts.Opener,
		newWatcher: opts.NewWatcher,
		store:      state.NewStore(),
		in:         in,
		out:        out,
		logger:     logger,
		prompt:     color.New(color.FgCyan, color.Bold),
		okColor:    color.New(color.FgGreen),
		errText:    color.New(color.FgRed),
		dim:        color.New(color.Faint),
	}
}

// Store exposes the session driven by the REPL.
func (r *REPL) Store() *state.Store {
	return r.store
}

// Run reads commands until :quit, end of input or ctx cancellation.
// When initialPath is set the document is opened and summarized first.
func (r *REPL) Run(ctx context.Context, initialPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer r.wg.Wait()
	defer r.unwatch()

	if initialPath != "" {
		r.open(ctx, initialPath)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		r.printPrompt()

		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			r.println("")
			return err
		case line := <-lines:
			if quit := r.handle(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (r *REPL) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, ":") {
		r.ask(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		r.println(helpText)
	case ":open", ":o":
		if arg == "" {
			r.fail("usage: :open <path>")
			break
		}
		r.open(ctx, arg)
	case ":summarize", ":s":
		r.summarize(ctx)
	case ":status":
		r.status()
	case ":export", ":e":
		if arg == "" {
			r.fail("usage: :export <path>")
			break
		}
		r.export(ctx, arg)
	default:
		r.fail(fmt.Sprintf("unknown command %s, type :help", cmd))
	}
	return false
}

func (r *REPL) open(ctx context.Context, path string) {
	doc, err := r.opener.OpenDocument(path)
	if err != nil {
		r.logger.Debug("open document failed", zap.String("path", path), zap.Error(err))
		r.fail(fmt.Sprintf("cannot open %s: %v", path, err))
		return
	}

	r.usecase.SelectDocument(ctx, r.store, doc)
	r.ok(fmt.Sprintf("Selected %s (%d bytes)", doc.Name, doc.Size()))

	r.watch(ctx, path)
	r.summarize(ctx)
}

func (r *REPL) summarize(ctx context.Context) {
	r.dimln("Summarizing...")

	snap, err := r.usecase.Summarize(ctx, r.store)
	switch {
	case err == nil && snap.HasSummary():
		r.println("")
		r.ok("Summary:")
		r.println(snap.Summary.Text)
		r.dimln("Document ID: " + snap.DocumentID())
	case errors.Is(err, entity.ErrFlowInFlight):
		r.fail("A summary is already being prepared.")
	case err == nil, errors.Is(err, entity.ErrStaleCompletion):
		r.dimln("Document changed, previous summary discarded.")
	default:
		r.fail(snap.ErrorMessage)
	}
}

func (r *REPL) ask(ctx context.Context, question string) {
	r.usecase.SetQuestion(ctx, r.store, question)

	snap, err := r.usecase.Ask(ctx, r.store)
	switch {
	case err == nil:
		r.ok("Answer:")
		r.println(snap.Answer)
	case errors.Is(err, entity.ErrStaleCompletion):
		r.dimln("Document changed, answer discarded.")
	default:
		r.fail(snap.ErrorMessage)
	}
}

func (r *REPL) status() {
	snap := r.store.Snapshot()

	var b strings.Builder
	if snap.Document != nil {
		fmt.Fprintf(&b, "Document:    %s (%s, %d bytes)\n", snap.Document.Name, snap.Document.MIMEType, snap.Document.Size())
	} else {
		b.WriteString("Document:    none\n")
	}
	fmt.Fprintf(&b, "Document ID: %s\n", orDash(snap.DocumentID()))
	fmt.Fprintf(&b, "Summarizing: %t\n", snap.IsSummarizing)
	fmt.Fprintf(&b, "Asking:      %t\n", snap.IsAsking)
	fmt.Fprintf(&b, "Question:    %s\n", orDash(snap.Question))
	fmt.Fprintf(&b, "Answer:      %s\n", orDash(snap.Answer))
	fmt.Fprintf(&b, "Error:       %s", orDash(snap.ErrorMessage))

	r.println(b.String())
}

func (r *REPL) export(ctx context.Context, path string) {
	format, err := formatFromPath(path)
	if err != nil {
		r.fail(err.Error())
		return
	}

	file, err := r.usecase.Export(ctx, r.store.Snapshot(), format)
	if err != nil {
		if errors.Is(err, entity.ErrNoSummary) {
			r.fail("Nothing to export yet, summarize a document first.")
			return
		}
		r.fail(fmt.Sprintf("export failed: %v", err))
		return
	}

	if err := os.WriteFile(path, file.Content, 0o644); err != nil {
		r.fail(fmt.Sprintf("write %s: %v", path, err))
		return
	}
	r.ok(fmt.Sprintf("Saved %s (%d bytes)", path, len(file.Content)))
}

func formatFromPath(path string) (entity.ExportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return entity.FormatMarkdown, nil
	case ".html", ".htm":
		return entity.FormatHTML, nil
	case ".pdf":
		return entity.FormatPDF, nil
	case ".docx":
		return entity.FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: use .md, .html, .pdf or .docx", entity.ErrInvalidFormat)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (r *REPL) printPrompt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt.Fprint(r.out, "> ")
}

func (r *REPL) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func (r *REPL) ok(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.okColor.Fprintln(r.out, s)
}

func (r *REPL) fail(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errText.Fprintln(r.out, s)
}

func (r *REPL) dimln(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dim.Fprintln(r.out, s)
}
