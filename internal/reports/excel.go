package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yizus58/api-zoo/internal/types"
)

const (
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	noDataText       = "Sin comentarios registrados"
	dateFormat       = "02/01/2006 15:04:05"
)

// reportHeaders is the fixed nine-column layout shared by both renderers.
var reportHeaders = []string{
	"Zona", "Especie", "Animal", "Comentario", "Autor", "Fecha",
	"Respuesta", "Autor Respuesta", "Fecha Respuesta",
}

var excelColWidths = []float64{15, 15, 15, 25, 15, 18, 25, 15, 18}

// ExcelRenderer produces the per-owner daily report workbook.
type ExcelRenderer struct{}

// NewExcelRenderer creates an ExcelRenderer.
func NewExcelRenderer() *ExcelRenderer { return &ExcelRenderer{} }

// Name identifies the renderer in log and error output.
func (r *ExcelRenderer) Name() string { return "excel" }

// ContentType returns the MIME type of the rendered document.
func (r *ExcelRenderer) ContentType() string { return excelContentType }

// FileExtension returns the document's file extension, dot included.
func (r *ExcelRenderer) FileExtension() string { return ".xlsx" }

// Render builds the workbook for one owner: a merged title row naming the
// user, a blank spacer row, the header row, then one data row per bundle.
// A job with no bundles still yields a valid workbook carrying a single
// placeholder row.
func (r *ExcelRenderer) Render(job types.UserReportJob) ([]byte, error) {
	return r.RenderAll([]types.UserReportJob{job})
}

// RenderAll builds one workbook covering every owner, one sheet per job.
// Sheet names derive from the owner emails; duplicates get a numeric suffix
// within the 31-character sheet name limit.
func (r *ExcelRenderer) RenderAll(jobs []types.UserReportJob) ([]byte, error) {
	if len(jobs) == 0 {
		return nil, renderFailed("excel", fmt.Errorf("no jobs to render"))
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		sheet := uniqueSheetName(sheetName(job.Email), used)
		used[sheet] = true
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, renderFailed("excel", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, renderFailed("excel", err)
		}
		if err := r.renderSheet(f, sheet, job); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, renderFailed("excel", err)
	}
	return buf.Bytes(), nil
}

func (r *ExcelRenderer) renderSheet(f *excelize.File, sheet string, job types.UserReportJob) error {
	if err := f.MergeCell(sheet, "A1", "I1"); err != nil {
		return renderFailed("excel", err)
	}
	title := fmt.Sprintf("Usuario: %s | Reporte Animales Comentados", job.Email)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return renderFailed("excel", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
	})
	if err != nil {
		return renderFailed("excel", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return renderFailed("excel", err)
	}

	// Row 2 stays blank; headers land on row 3.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return renderFailed("excel", err)
	}
	headerRow := make([]any, len(reportHeaders))
	for i, h := range reportHeaders {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A3", &headerRow); err != nil {
		return renderFailed("excel", err)
	}
	if err := f.SetCellStyle(sheet, "A3", "I3", headerStyle); err != nil {
		return renderFailed("excel", err)
	}
	if err := f.SetRowHeight(sheet, 3, 18); err != nil {
		return renderFailed("excel", err)
	}

	if len(job.Bundles) == 0 {
		if err := f.SetCellValue(sheet, "A5", noDataText); err != nil {
			return renderFailed("excel", err)
		}
	}

	for i, b := range job.Bundles {
		row := []any{
			b.Zone,
			b.Species,
			b.Animal,
			b.Comment.Text,
			b.Comment.Author,
			b.Comment.Timestamp.UTC().Format(dateFormat),
			"", "", "",
		}
		if b.Reply != nil {
			row[6] = b.Reply.Text
			row[7] = b.Reply.Author
			row[8] = b.Reply.Timestamp.UTC().Format(dateFormat)
		}
		cell := fmt.Sprintf("A%d", 4+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return renderFailed("excel", err)
		}
	}

	for i, w := range excelColWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return renderFailed("excel", err)
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return renderFailed("excel", err)
		}
	}

	if len(job.Bundles) > 0 {
		if err := f.AutoFilter(sheet, "A3:I3", nil); err != nil {
			return renderFailed("excel", err)
		}
	}

	return nil
}

// sheetName derives a sheet title from the owner's email, capped at the
// 31-character sheet name limit Excel imposes.
func sheetName(email string) string {
	if email == "" {
		return "usuario"
	}
	name := email
	if len(name) > 25 {
		name = name[:25]
	}
	return name
}

// uniqueSheetName disambiguates duplicate owner emails by appending _1,
// _2, ... while keeping the full name within Excel's 31-character limit.
func uniqueSheetName(base string, used map[string]bool) string {
	name := base
	for counter := 1; used[name]; counter++ {
		suffix := fmt.Sprintf("_%d", counter)
		max := 31 - len(suffix)
		trimmed := base
		if len(trimmed) > max {
			trimmed = trimmed[:max]
		}
		name = trimmed + suffix
	}
	return name
}

func renderFailed(kind string, err error) error {
	return types.NewAppError(types.ErrCodeReportGeneration,
		fmt.Sprintf("failed to render %s report", kind), err)
}
