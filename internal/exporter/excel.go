package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"hsecli/internal/config"
	"hsecli/pkg/contracts/domain"
)

// Sheet names inside the unified workbook.
const (
	summarySheet = "ملخص المؤشرات"
)

// categorySheetNames maps categories to their Arabic workbook sheets.
var categorySheetNames = map[domain.Category]string{
	domain.CategoryInspections:      "التفتيش",
	domain.CategoryIncidents:        "الحوادث",
	domain.CategoryRiskAssessments:  "تقييم المخاطر",
	domain.CategoryContractorAudits: "تدقيق المقاولين",
}

// ExcelWriter writes the unified workbook export.
type ExcelWriter struct {
	paths *config.Paths
}

func NewExcelWriter(paths *config.Paths) *ExcelWriter {
	return &ExcelWriter{paths: paths}
}

// WriteWorkbook writes one workbook with the KPI summary sheet first and
// one sheet per unified category that has records.
func (w *ExcelWriter) WriteWorkbook(name string, tables map[domain.Category][]domain.SafetyRecord, report domain.KPIReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSheet(f, summarySheet, KPIHeaders, kpiRows(report)); err != nil {
		return err
	}

	for _, cat := range domain.Categories() {
		records := tables[cat]
		if len(records) == 0 {
			continue
		}
		sheet := categorySheetNames[cat]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			rows = append(rows, RecordRow(rec))
		}
		if err := writeSheet(f, sheet, RecordHeaders, rows); err != nil {
			return err
		}
	}

	path := w.paths.ExportPath(name)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	slog.Info("wrote workbook export",
		slog.String("file", name),
		slog.Int("categories", len(report.Categories)))

	return nil
}

func kpiRows(report domain.KPIReport) [][]string {
	rows := make([][]string, 0, len(report.Categories))
	for _, cat := range SortedCategories(report.Categories) {
		rows = append(rows, KPIRow(report.Categories[cat]))
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write headers to %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d to %s: %w", i, sheet, err)
		}
	}
	// Right-to-left so Arabic columns read naturally.
	rtl := true
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("set sheet view for %s: %w", sheet, err)
	}
	return nil
}
