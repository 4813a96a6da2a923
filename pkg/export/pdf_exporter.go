package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions tunes the document layout.
type PDFOptions struct {
	Title     string
	Landscape bool
	// Appendix is rendered as a second table under its own heading when it has rows.
	Appendix      *Dataset
	AppendixTitle string
}

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderWithOptions(data, PDFOptions{Title: title})
}

// RenderWithOptions renders data with the provided layout options.
func (e *PDFExporter) RenderWithOptions(data Dataset, opts PDFOptions) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	orientation, width := "P", 190.0
	if opts.Landscape {
		orientation, width = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(opts.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	writeTable(pdf, data, width)

	if opts.Appendix != nil && len(opts.Appendix.Rows) > 0 {
		pdf.Ln(6)
		if opts.AppendixTitle != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, opts.AppendixTitle, "", 1, "L", false, 0, "")
		}
		writeTable(pdf, *opts.Appendix, width)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset, width float64) {
	pdf.SetFont("Arial", "B", 10)
	colWidth := width / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
