package entity

type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatHTML     ExportFormat = "html"
	FormatPDF      ExportFormat = "pdf"
	FormatDOCX     ExportFormat = "docx"
)

func (f ExportFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX:
		return true
	default:
		return false
	}
}

// Transcript is the exportable view of a session: the summary and the current exchange.
type Transcript struct {
	DocumentName string
	DocumentID   string
	Summary      string
	Question     string
	Answer       string
}

// ExportFile is a rendered transcript ready to be sent to the user.
type ExportFile struct {
	Name        string
	ContentType string
	Content     []byte
}
