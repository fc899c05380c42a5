package reports

import (
	"bytes"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yizus58/api-zoo/internal/types"
)

func sampleJob() types.UserReportJob {
	at := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	return types.UserReportJob{
		UserID: "owner-a",
		Email:  "a@zoo.com",
		Bundles: []types.DailyCommentBundle{
			{
				Zone:    "Sabana",
				Species: "León",
				Animal:  "Leo",
				Comment: types.BundleComment{
					ID: "c1", Text: "que lindo", Author: "vis@zoo.com", Timestamp: at,
				},
				Reply: &types.BundleReply{
					ID: "r1", Text: "gracias por visitarnos", Author: "staff@zoo.com",
					Timestamp: at.Add(5 * time.Minute), ParentID: "c1",
				},
			},
			{
				Zone:    "Aviario",
				Species: "Guacamaya",
				Animal:  "Paco",
				Comment: types.BundleComment{
					ID: "c2", Text: "muy colorido", Author: "vis2@zoo.com", Timestamp: at.Add(time.Hour),
				},
			},
		},
	}
}

func TestExcelRenderer_Render(t *testing.T) {
	data, err := NewExcelRenderer().Render(sampleJob())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	require.Equal(t, "Usuario: a@zoo.com | Reporte Animales Comentados", title)

	header, err := f.GetCellValue(sheet, "A3")
	require.NoError(t, err)
	require.Equal(t, "Zona", header)
	lastHeader, err := f.GetCellValue(sheet, "I3")
	require.NoError(t, err)
	require.Equal(t, "Fecha Respuesta", lastHeader)

	zone, err := f.GetCellValue(sheet, "A4")
	require.NoError(t, err)
	require.Equal(t, "Sabana", zone)
	reply, err := f.GetCellValue(sheet, "G4")
	require.NoError(t, err)
	require.Equal(t, "gracias por visitarnos", reply)
	date, err := f.GetCellValue(sheet, "F4")
	require.NoError(t, err)
	require.Equal(t, "01/06/2024 14:30:00", date)

	// Second bundle has no reply; its reply cells are blank.
	emptyReply, err := f.GetCellValue(sheet, "G5")
	require.NoError(t, err)
	require.Empty(t, emptyReply)
}

func TestExcelRenderer_EmptyJob(t *testing.T) {
	job := types.UserReportJob{UserID: "owner-a", Email: "a@zoo.com"}

	data, err := NewExcelRenderer().Render(job)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	placeholder, err := f.GetCellValue(f.GetSheetName(0), "A5")
	require.NoError(t, err)
	require.Equal(t, "Sin comentarios registrados", placeholder)
}

func TestExcelRenderer_SheetNameCapped(t *testing.T) {
	job := types.UserReportJob{
		UserID: "owner-a",
		Email:  "a-very-long-email-address@example-zoo.com",
	}
	data, err := NewExcelRenderer().Render(job)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.LessOrEqual(t, len(f.GetSheetName(0)), 31)
}

func TestPDFRenderer_Render(t *testing.T) {
	data, err := NewPDFRenderer().Render(sampleJob())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output should be a PDF document")
}

func TestPDFRenderer_EmptyJob(t *testing.T) {
	job := types.UserReportJob{UserID: "owner-a", Email: "a@zoo.com"}

	data, err := NewPDFRenderer().Render(job)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRendererMetadata(t *testing.T) {
	excel := NewExcelRenderer()
	require.Equal(t, ".xlsx", excel.FileExtension())
	require.Equal(t, excelContentType, excel.ContentType())
	require.Equal(t, "excel", excel.Name())

	pdf := NewPDFRenderer()
	require.Equal(t, ".pdf", pdf.FileExtension())
	require.Equal(t, "application/pdf", pdf.ContentType())
	require.Equal(t, "pdf", pdf.Name())
}

func TestExcelRenderer_RenderAll(t *testing.T) {
	jobs := []types.UserReportJob{
		sampleJob(),
		{
			UserID: "owner-b",
			Email:  "b@zoo.com",
			Bundles: []types.DailyCommentBundle{{
				Zone: "Aviario", Species: "Tucán", Animal: "Tico",
				Comment: types.BundleComment{ID: "c9", Text: "hola", Author: "vis@zoo.com"},
			}},
		},
	}

	data, err := NewExcelRenderer().RenderAll(jobs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	// One sheet per owner, named after the email.
	require.Equal(t, []string{"a@zoo.com", "b@zoo.com"}, f.GetSheetList())

	title, err := f.GetCellValue("b@zoo.com", "A1")
	require.NoError(t, err)
	require.Equal(t, "Usuario: b@zoo.com | Reporte Animales Comentados", title)
	animal, err := f.GetCellValue("b@zoo.com", "C4")
	require.NoError(t, err)
	require.Equal(t, "Tico", animal)
}

func TestExcelRenderer_RenderAllDuplicateEmails(t *testing.T) {
	job := sampleJob()
	data, err := NewExcelRenderer().RenderAll([]types.UserReportJob{job, job, job})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 3)
	require.Equal(t, "a@zoo.com", sheets[0])
	require.Equal(t, "a@zoo.com_1", sheets[1])
	require.Equal(t, "a@zoo.com_2", sheets[2])
	for _, s := range sheets {
		require.LessOrEqual(t, len(s), 31)
	}
}

func TestExcelRenderer_RenderAllNoJobs(t *testing.T) {
	_, err := NewExcelRenderer().RenderAll(nil)
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "corto", truncate("corto", 10))
	long := truncate("un comentario realmente muy largo sobre el animal", 20)
	require.Len(t, long, 20)
	require.Equal(t, "...", long[17:])
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	// A multi-byte rune straddling the cut must not be split.
	s := "aaaaaaaaaaaaaaaañarandísimo comentario aquí"
	out := truncate(s, 20)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, "...", out[len(out)-3:])
	require.Equal(t, 20, utf8.RuneCountInString(out))
}
