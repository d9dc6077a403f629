// Package pdf renders report documents with gofpdf. The builder owns the
// vertical cursor on an A4 portrait page and inserts page breaks on demand.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait layout, all in millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	marginMM     = 15.0
	bottomMM     = 20.0

	bodyFontPt    = 11.0
	headingFontPt = 13.0
	titleFontPt   = 18.0

	lineHeightMM    = 6.0
	headingHeightMM = 9.0
	titleHeightMM   = 14.0
)

// Builder implements a paginated A4 document. It is single-use: build the
// document top to bottom, then call Output once.
type Builder struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	imageSeq int
}

// NewBuilder creates an empty document. The first content page must be opened
// with AddPage before writing.
func NewBuilder() *Builder {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginMM, marginMM, marginMM)
	doc.SetAutoPageBreak(false, bottomMM)
	// Core fonts are cp1252; the translator maps runes like the degree sign.
	tr := doc.UnicodeTranslatorFromDescriptor("")
	return &Builder{pdf: doc, tr: tr}
}

// AddPage starts a new page and resets the cursor to the top margin.
func (b *Builder) AddPage() {
	b.pdf.AddPage()
}

// EnsureSpace starts a new page if fewer than heightMM millimetres remain
// above the bottom margin.
func (b *Builder) EnsureSpace(heightMM float64) {
	if b.pdf.GetY()+heightMM > pageHeightMM-bottomMM {
		b.pdf.AddPage()
	}
}

// Title writes a centred document title.
func (b *Builder) Title(text string) {
	b.pdf.SetFont("Helvetica", "B", titleFontPt)
	b.pdf.CellFormat(0, titleHeightMM, b.tr(text), "", 1, "C", false, 0, "")
}

// Heading writes a bold section heading.
func (b *Builder) Heading(text string) {
	b.pdf.SetFont("Helvetica", "B", headingFontPt)
	b.pdf.CellFormat(0, headingHeightMM, b.tr(text), "", 1, "L", false, 0, "")
}

// Text writes one body line.
func (b *Builder) Text(line string) {
	b.pdf.SetFont("Helvetica", "", bodyFontPt)
	b.pdf.CellFormat(0, lineHeightMM, b.tr(line), "", 1, "L", false, 0, "")
}

// Spacer advances the cursor by heightMM.
func (b *Builder) Spacer(heightMM float64) {
	b.pdf.Ln(heightMM)
}

// Table writes a bordered table with a bold header row. widths are column
// widths in millimetres; rows wider than the remaining page space break onto
// the next page with the header repeated.
func (b *Builder) Table(headers []string, widths []float64, rows [][]string) {
	writeHeader := func() {
		b.pdf.SetFont("Helvetica", "B", bodyFontPt)
		b.pdf.SetFillColor(230, 230, 230)
		for i, h := range headers {
			b.pdf.CellFormat(widths[i], lineHeightMM, b.tr(h), "1", 0, "C", true, 0, "")
		}
		b.pdf.Ln(-1)
	}

	writeHeader()
	b.pdf.SetFont("Helvetica", "", bodyFontPt)
	for _, row := range rows {
		if b.pdf.GetY()+lineHeightMM > pageHeightMM-bottomMM {
			b.pdf.AddPage()
			writeHeader()
			b.pdf.SetFont("Helvetica", "", bodyFontPt)
		}
		for i, cell := range row {
			align := "L"
			if i >= 2 {
				align = "R"
			}
			b.pdf.CellFormat(widths[i], lineHeightMM, b.tr(cell), "1", 0, align, false, 0, "")
		}
		b.pdf.Ln(-1)
	}
}

// Image places a base64-encoded raster image at the cursor, centred
// horizontally, and advances the cursor past it.
func (b *Builder) Image(encoded string, widthMM, heightMM float64) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	b.imageSeq++
	name := fmt.Sprintf("img-%d", b.imageSeq)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	b.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if b.pdf.Err() {
		return fmt.Errorf("register image: %w", b.pdf.Error())
	}

	x := (pageWidthMM - widthMM) / 2
	y := b.pdf.GetY()
	b.pdf.ImageOptions(name, x, y, widthMM, heightMM, false, opts, 0, "")
	if b.pdf.Err() {
		return fmt.Errorf("place image: %w", b.pdf.Error())
	}
	b.pdf.SetY(y + heightMM)
	return nil
}

// PageCount reports the number of pages written so far.
func (b *Builder) PageCount() int {
	return b.pdf.PageCount()
}

// Output finalises the document and returns its bytes.
func (b *Builder) Output() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
