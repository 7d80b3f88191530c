package entity

// Document is the raw file chosen by the user.
// A selected document is replaced on re-selection, never mutated.
type Document struct {
	Name     string
	MIMEType string
	Content  []byte
}

// Size returns the content length in bytes.
func (d *Document) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Content)
}

// Summary is the result of a successful summarize flow.
// DocumentID and Text are always set together.
type Summary struct {
	DocumentID string
	Text       string
}
