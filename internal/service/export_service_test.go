package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stemsi/sgpa-planner/internal/grade"
	"github.com/stemsi/sgpa-planner/internal/semester"
)

func TestExportWorkbook(t *testing.T) {
	planner, store, _ := setupPlanner()
	store.sheets[sheetKey{1, 1}] = semester.Rows{
		{ModuleName: "CS101", ModuleCode: "C1", Credit: 3, Grade: grade.A},
		{ModuleName: "CS102", ModuleCode: "C2", Credit: 4, Grade: grade.BPlus},
	}
	svc := NewExportService(planner, zerolog.Nop())

	data, err := svc.ExportWorkbook(context.Background(), 1)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Semester 1"}, f.GetSheetList())

	name, err := f.GetCellValue("Semester 1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "CS102", name)

	gradeCell, err := f.GetCellValue("Semester 1", "D2")
	require.NoError(t, err)
	assert.Equal(t, "A", gradeCell)

	label, err := f.GetCellValue("Summary", "A4")
	require.NoError(t, err)
	assert.Equal(t, "CGPA", label)
}
