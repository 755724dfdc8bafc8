package export

import (
	"fmt"
	"strings"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user supplied format; empty selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Column describes one sheet column. Width is a relative share of the page
// width used by the PDF renderer; zero means an equal share.
type Column struct {
	Header string
	Width  float64
	Align  string
}

// Sheet is an ordered table ready to be rendered.
type Sheet struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     [][]string
}

// AddRow appends a row, padding or truncating it to the column count.
func (s *Sheet) AddRow(values ...string) {
	row := make([]string, len(s.Columns))
	copy(row, values)
	s.Rows = append(s.Rows, row)
}

func (s Sheet) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("sheet requires at least one column")
	}
	return nil
}

// Renderer encodes a sheet.
type Renderer interface {
	Render(sheet Sheet) ([]byte, error)
	ContentType() string
	Extension() string
}

// RendererFor returns the renderer registered for format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
