package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/semester"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// ExportService renders a student's planner as an .xlsx workbook: one sheet
// per semester plus a summary sheet with the CGPA.
type ExportService struct {
	planner *PlannerService
	log     zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(planner *PlannerService, log zerolog.Logger) *ExportService {
	return &ExportService{
		planner: planner,
		log:     log.With().Str("component", "export_service").Logger(),
	}
}

// ExportWorkbook builds the workbook and returns its bytes.
func (s *ExportService) ExportWorkbook(ctx context.Context, studentID int) ([]byte, error) {
	overview, sheets, err := s.planner.Overview(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return BuildWorkbook(overview, sheets)
}

// BuildWorkbook writes the overview and sheets into a new workbook.
func BuildWorkbook(overview *model.PlannerOverview, sheets map[int]semester.Rows) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	// Summary sheet.
	writeRow(f, summarySheet, 1, "Semester", "SGPA", "Credits", "Courses")
	_ = f.SetCellStyle(summarySheet, "A1", "D1", headerStyle)
	row := 2
	for _, sum := range overview.Semesters {
		writeRow(f, summarySheet, row, sum.Number, sum.SGPA, sum.TotalCredits, sum.RowCount)
		row++
	}
	writeRow(f, summarySheet, row+1, "CGPA", overview.CGPA, overview.TotalCredits)
	_ = f.SetColWidth(summarySheet, "A", "D", 14)

	// One sheet per semester.
	for _, sum := range overview.Semesters {
		name := fmt.Sprintf("Semester %d", sum.Number)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		writeRow(f, name, 1, "Module Name", "Module Code", "Credit", "Grade", "Credit Point")
		_ = f.SetCellStyle(name, "A1", "E1", headerStyle)
		_ = f.SetColWidth(name, "A", "A", 32)
		_ = f.SetColWidth(name, "B", "E", 14)

		r := 2
		for _, course := range sheets[sum.Number] {
			writeRow(f, name, r, course.ModuleName, course.ModuleCode, course.Credit, string(course.Grade), course.CreditPoint)
			r++
		}
		writeRow(f, name, r+1, "SGPA", sum.SGPA)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
