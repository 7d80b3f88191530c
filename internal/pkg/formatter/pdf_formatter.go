package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/futig/docqa/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the gofpdf family name of the UTF-8 font.
	pdfFontName = "DejaVuSans"

	// next to the binary in the container image
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"
	// when started from the repository root
	pdfFontSourcePath = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct {
	fontPaths []string
}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{
		fontPaths: []string{pdfFontRuntimePath, pdfFontSourcePath},
	}
}

func (pf *PDFFormatter) resolveFontPath() string {
	for _, path := range pf.fontPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(t *entity.Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Core fonts only cover cp1252, so non-Latin text needs the bundled font.
	fontName := "Arial"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := pf.resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
		translate = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 18)
	pdf.MultiCell(0, 9, translate(title(t)), "", "", false)
	pdf.Ln(2)

	if t.DocumentID != "" {
		pdf.SetFont(fontName, "", 9)
		pdf.Cell(0, 6, translate("Document ID: "+t.DocumentID))
		pdf.Ln(8)
	}

	for _, s := range sections(t) {
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, translate(s.heading))
		pdf.Ln(9)

		pdf.SetFont(fontName, "", 12)
		_, lineHeight := pdf.GetFontSize()
		pdf.MultiCell(0, lineHeight*1.5, translate(s.body), "", "", false)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
