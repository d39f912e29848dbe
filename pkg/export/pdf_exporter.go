package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const listRowHeight = 6.0

// PDFExporter renders list views into a landscape table PDF. The header row
// repeats on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. It
// returns the bytes and the page count.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, int, error) {
	if len(data.Headers) == 0 {
		return nil, 0, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	colWidth := (pageW - left - right) / float64(len(data.Headers))

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, listRowHeight+1, tr(strings.ToUpper(header)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	pdf.SetY(top)
	if title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	writeHeader()

	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return nil, 0, fmt.Errorf("pdf row %d has %d columns, want %d", i, len(row), len(data.Headers))
		}
		if pdf.GetY()+listRowHeight > pageH-bottom {
			pdf.AddPage()
			writeHeader()
		}
		for _, value := range row {
			pdf.CellFormat(colWidth, listRowHeight, tr(fitCell(pdf, tr, value, colWidth-2)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, 0, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

// fitCell truncates value with an ellipsis until it fits width.
func fitCell(pdf *gofpdf.Fpdf, tr func(string) string, value string, width float64) string {
	if pdf.GetStringWidth(tr(value)) <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
