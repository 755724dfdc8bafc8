package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0
	pdfRowHeight  = 7.0
	pdfHeadHeight = 8.0
)

// PDFRenderer lays a sheet out as a landscape A4 table, repeating the header
// row on every page.
type PDFRenderer struct{}

// NewPDFRenderer builds a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }

// Render implements Renderer.
func (r *PDFRenderer) Render(sheet Sheet) ([]byte, error) {
	if err := sheet.validate(); err != nil {
		return nil, err
	}
	widths := columnWidths(sheet.Columns)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetHeaderFunc(func() {
		if sheet.Title != "" && pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 9, sheet.Title, "", 1, "L", false, 0, "")
			if sheet.Subtitle != "" {
				pdf.SetFont("Arial", "", 10)
				pdf.CellFormat(0, 6, sheet.Subtitle, "", 1, "L", false, 0, "")
			}
			pdf.Ln(3)
		}
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range sheet.Columns {
			pdf.CellFormat(widths[i], pdfHeadHeight, col.Header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "", 9)
	for _, row := range sheet.Rows {
		for i, col := range sheet.Columns {
			var value string
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], pdfRowHeight, value, "1", 0, col.Align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []Column) []float64 {
	var total float64
	for _, c := range columns {
		if c.Width > 0 {
			total += c.Width
		} else {
			total++
		}
	}
	widths := make([]float64, len(columns))
	for i, c := range columns {
		share := c.Width
		if share <= 0 {
			share = 1
		}
		widths[i] = pdfPageWidth * share / total
	}
	return widths
}
