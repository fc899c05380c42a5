package reports

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/yizus58/api-zoo/internal/types"
)

const pdfContentType = "application/pdf"

// pdfColWidths mirrors the Excel column proportions scaled to a landscape
// A4 content width of 277mm.
var pdfColWidths = []float64{24, 24, 24, 48, 28, 30, 48, 28, 23}

// PDFRenderer produces the per-owner daily report as a landscape PDF table.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) Name() string { return "pdf" }

func (r *PDFRenderer) ContentType() string { return pdfContentType }

func (r *PDFRenderer) FileExtension() string { return ".pdf" }

// Render builds the PDF for one owner: title, greeting line, then the same
// nine-column table the workbook carries, with a filled header row and
// zebra-striped data rows. A job with no bundles yields a document with a
// single placeholder row spanning the table width.
func (r *PDFRenderer) Render(job types.UserReportJob) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Reporte de Animales Comentados"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	greeting := fmt.Sprintf("¡Hola %s! En este reporte encontraras los animales relacionados a ti que fueron comentados", job.Email)
	pdf.MultiCell(0, 6, tr(greeting), "", "L", false)
	pdf.Ln(4)

	r.writeHeaderRow(pdf, tr)

	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(0, 0, 0)
	if len(job.Bundles) == 0 {
		pdf.SetFillColor(242, 242, 242)
		pdf.CellFormat(tableWidth(), 8, tr(noDataText), "1", 1, "C", true, 0, "")
	}
	for i, b := range job.Bundles {
		fill := i%2 == 1
		pdf.SetFillColor(242, 242, 242)
		cells := []string{
			b.Zone,
			b.Species,
			b.Animal,
			b.Comment.Text,
			b.Comment.Author,
			b.Comment.Timestamp.UTC().Format(dateFormat),
			"", "", "",
		}
		if b.Reply != nil {
			cells[6] = b.Reply.Text
			cells[7] = b.Reply.Author
			cells[8] = b.Reply.Timestamp.UTC().Format(dateFormat)
		}
		if pdf.GetY() > 185 {
			pdf.AddPage()
			r.writeHeaderRow(pdf, tr)
			pdf.SetFont("Arial", "", 8)
			pdf.SetTextColor(0, 0, 0)
		}
		for j, cell := range cells {
			align := "L"
			if j == 5 || j == 8 {
				align = "C"
			}
			pdf.CellFormat(pdfColWidths[j], 8, tr(truncate(cell, 42)), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderFailed("pdf", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) writeHeaderRow(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range reportHeaders {
		pdf.CellFormat(pdfColWidths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableWidth() float64 {
	var w float64
	for _, c := range pdfColWidths {
		w += c
	}
	return w
}

// truncate keeps table cells on a single line; full text remains available
// in the workbook. Cuts on rune boundaries so accented text stays valid
// UTF-8.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
