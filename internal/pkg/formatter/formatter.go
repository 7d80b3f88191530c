package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/docqa/internal/entity"
)

const baseTitle = "Document summary"

type Formatter interface {
	Format(t *entity.Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ExportFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatHTML:
		return NewHTMLFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", entity.ErrInvalidFormat, format)
	}
}

// FileName builds a download name from the document name, e.g. "report.summary.md".
func FileName(t *entity.Transcript, f Formatter) string {
	base := strings.TrimSuffix(t.DocumentName, pathExt(t.DocumentName))
	if base == "" {
		base = "document"
	}
	return base + ".summary" + f.FileExtension()
}

func pathExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}

func title(t *entity.Transcript) string {
	if t.DocumentName == "" {
		return baseTitle
	}
	return baseTitle + ": " + t.DocumentName
}

// section is one titled block of the transcript, in output order.
type section struct {
	heading string
	body    string
}

func sections(t *entity.Transcript) []section {
	out := []section{{heading: "Summary", body: t.Summary}}
	if strings.TrimSpace(t.Question) != "" {
		out = append(out, section{heading: "Question", body: t.Question})
	}
	if t.Answer != "" {
		out = append(out, section{heading: "Answer", body: t.Answer})
	}
	return out
}
