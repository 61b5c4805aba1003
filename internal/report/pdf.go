package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// DefaultPageSize is the paper size used when PDFRenderer.PageSize is empty.
const DefaultPageSize = "A4"

// PDF layout in points. The table fits both A4 and Letter.
const (
	pdfMargin    = 36.0
	pdfNameWidth = 340.0
	pdfDateWidth = 170.0
	pdfLineH     = 14.0
	pdfFontSize  = 10.0
	pdfTitleSize = 18.0
	pdfHeadSize  = 14.0
)

// PDFRenderer writes a titled table of games per category.
type PDFRenderer struct {
	PageSize string
}

// NewPDFRenderer returns a PDFRenderer for A4 pages.
func NewPDFRenderer() PDFRenderer {
	return PDFRenderer{PageSize: DefaultPageSize}
}

func (PDFRenderer) Extension() string { return "pdf" }

func (p PDFRenderer) RenderGroup(w io.Writer, g Group) error {
	doc := p.newDoc()
	doc.AddPage()
	doc.title(fmt.Sprintf("Games Report for Category: %s", g.Title()), pdfTitleSize)
	doc.table(g)
	return doc.output(w)
}

func (p PDFRenderer) RenderAll(w io.Writer, groups []Group) error {
	doc := p.newDoc()
	doc.AddPage()
	doc.title("Games Report by Category", pdfTitleSize)
	for _, g := range groups {
		doc.ensureSpace(pdfLineH * 4)
		doc.title(g.Title(), pdfHeadSize)
		doc.table(g)
		doc.Ln(pdfLineH)
	}
	return doc.output(w)
}

type pdfDoc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func (p PDFRenderer) newDoc() pdfDoc {
	size := p.PageSize
	if size == "" {
		size = DefaultPageSize
	}
	f := fpdf.New("P", "pt", size, "")
	f.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	f.SetAutoPageBreak(false, pdfMargin)
	f.SetTitle("Games Report", true)
	return pdfDoc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
}

func (d pdfDoc) title(text string, size float64) {
	d.SetFont("Helvetica", "B", size)
	d.SetTextColor(0, 0, 0)
	d.MultiCell(pdfNameWidth+pdfDateWidth, size*1.4, d.tr(text), "", "L", false)
	d.Ln(size / 2)
}

// ensureSpace starts a new page unless h points remain above the bottom
// margin.
func (d pdfDoc) ensureSpace(h float64) bool {
	_, pageH := d.GetPageSize()
	if d.GetY()+h <= pageH-pdfMargin {
		return false
	}
	d.AddPage()
	return true
}

func (d pdfDoc) headerRow() {
	d.SetFont("Helvetica", "B", pdfFontSize)
	d.SetFillColor(128, 128, 128)
	d.SetTextColor(245, 245, 245)
	d.SetDrawColor(0, 0, 0)
	d.CellFormat(pdfNameWidth, pdfLineH+6, "Game Name", "1", 0, "L", true, 0, "")
	d.CellFormat(pdfDateWidth, pdfLineH+6, "Last Played", "1", 1, "L", true, 0, "")
}

func (d pdfDoc) table(g Group) {
	d.ensureSpace(pdfLineH * 3)
	d.headerRow()

	for _, r := range g.Rows {
		d.SetFont("Helvetica", "", pdfFontSize)
		name := d.tr(r.Name)
		lines := d.SplitText(name, pdfNameWidth-4)
		if len(lines) == 0 {
			lines = []string{""}
		}
		h := pdfLineH * float64(len(lines))

		if d.ensureSpace(h) {
			d.headerRow()
			d.SetFont("Helvetica", "", pdfFontSize)
		}

		x, y := d.GetXY()
		d.SetFillColor(245, 245, 220)
		d.SetTextColor(0, 0, 0)
		d.Rect(x, y, pdfNameWidth, h, "FD")
		d.Rect(x+pdfNameWidth, y, pdfDateWidth, h, "FD")

		for i, line := range lines {
			d.SetXY(x, y+pdfLineH*float64(i))
			d.CellFormat(pdfNameWidth, pdfLineH, line, "", 0, "L", false, 0, "")
		}
		d.SetXY(x+pdfNameWidth, y)
		d.CellFormat(pdfDateWidth, pdfLineH, r.LastPlayed.String(), "", 0, "L", false, 0, "")
		d.SetXY(x, y+h)
	}
}

func (d pdfDoc) output(w io.Writer) error {
	if err := d.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
