package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/docqa/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t *entity.Transcript) ([]byte, error) {
	return renderMarkdown(t), nil
}

func renderMarkdown(t *entity.Transcript) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", title(t))
	if t.DocumentID != "" {
		fmt.Fprintf(&buf, "Document ID: `%s`\n\n", t.DocumentID)
	}
	for _, s := range sections(t) {
		fmt.Fprintf(&buf, "## %s\n\n%s\n\n", s.heading, s.body)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
