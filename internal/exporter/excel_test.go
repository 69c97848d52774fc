package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hsecli/pkg/contracts/domain"
)

func TestWriteWorkbook(t *testing.T) {
	paths := testPaths(t)
	w := NewExcelWriter(paths)

	tables := map[domain.Category][]domain.SafetyRecord{
		domain.CategoryInspections: sampleRecords(),
	}
	report := domain.KPIReport{
		Categories: map[domain.Category]domain.CategoryKPI{
			domain.CategoryInspections: {
				Category:     domain.CategoryInspections,
				TotalRecords: 2,
				OpenItems:    1,
			},
		},
	}

	require.NoError(t, w.WriteWorkbook("unified.xlsx", tables, report))

	f, err := excelize.OpenFile(paths.ExportPath("unified.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "ملخص المؤشرات")
	assert.Contains(t, sheets, "التفتيش")
	// Categories without records get no sheet.
	assert.NotContains(t, sheets, "الحوادث")

	rows, err := f.GetRows("التفتيش")
	require.NoError(t, err)
	require.Len(t, rows, 3) // headers + 2 records
	assert.Equal(t, "الرقم", rows[0][0])
	assert.Equal(t, "1", rows[1][0])

	summary, err := f.GetRows("ملخص المؤشرات")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "inspections", summary[1][0])
}
