package validator

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/futig/docqa/internal/config"
	"github.com/futig/docqa/internal/entity"
	"github.com/gabriel-vasile/mimetype"
)

// textExtensions are accepted for any text/plain content.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Validator checks documents before they become the selected document of a session.
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateFileHeader checks an uploaded part before its content is read.
func (v *Validator) ValidateFileHeader(fh *multipart.FileHeader) error {
	if fh == nil {
		return fmt.Errorf("%w: file", entity.ErrMissingField)
	}
	if err := v.validateExtension(fh.Filename); err != nil {
		return err
	}
	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}
	return nil
}

// ReadDocument reads at most MaxFileSize bytes from r and returns the document
// if its name and content are acceptable.
func (v *Validator) ReadDocument(name string, r io.Reader) (*entity.Document, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name", entity.ErrMissingField)
	}
	if err := v.validateExtension(name); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(io.LimitReader(r, v.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file '%s': %w", name, err)
	}
	if int64(len(content)) > v.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: file '%s' exceeds %d bytes", entity.ErrFileTooLarge, name, v.cfg.MaxFileSize)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: file '%s' is empty", entity.ErrInvalidFile, name)
	}

	detected := mimetype.Detect(content)
	if !matchesExtension(detected, extension(name)) {
		return nil, fmt.Errorf("%w: '%s' content is %s", entity.ErrInvalidFile, name, detected.String())
	}

	return &entity.Document{
		Name:     name,
		MIMEType: detected.String(),
		Content:  content,
	}, nil
}

// OpenDocument reads and validates a document from the local filesystem.
func (v *Validator) OpenDocument(path string) (*entity.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: '%s' is a directory", entity.ErrInvalidFile, path)
	}
	if info.Size() > v.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, path, info.Size(), v.cfg.MaxFileSize)
	}

	return v.ReadDocument(filepath.Base(path), f)
}

// AllowedExtension reports whether name carries one of the configured extensions.
func (v *Validator) AllowedExtension(name string) bool {
	return slices.Contains(v.cfg.AllowedExtensions, extension(name))
}

func (v *Validator) validateExtension(name string) error {
	if !v.AllowedExtension(name) {
		return fmt.Errorf("%w: '%s' (allowed: %s)", entity.ErrInvalidExtension,
			filepath.Ext(name), strings.Join(v.cfg.AllowedExtensions, ", "))
	}
	return nil
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func matchesExtension(detected *mimetype.MIME, ext string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Extension() == ext {
			return true
		}
		if textExtensions[ext] && m.Is("text/plain") {
			return true
		}
	}
	return false
}

// MaxFileSize is the largest accepted document in bytes.
func (v *Validator) MaxFileSize() int64 {
	return v.cfg.MaxFileSize
}
