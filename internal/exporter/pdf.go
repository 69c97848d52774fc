package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"hsecli/internal/config"
	"hsecli/pkg/contracts/domain"
)

// PDFWriter renders the KPI summary as a one-page PDF via pdfcpu's
// JSON page description. Labels are English because the PDF core fonts
// carry no Arabic glyphs; the CSV/XLSX exports keep the Arabic labels.
type PDFWriter struct {
	paths *config.Paths
}

func NewPDFWriter(paths *config.Paths) *PDFWriter {
	return &PDFWriter{paths: paths}
}

// pdfDocument is the subset of pdfcpu's create-JSON schema used here.
type pdfDocument struct {
	Paper string             `json:"paperSize,omitempty"`
	Pages map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value    string    `json:"value"`
	Position []float64 `json:"position"`
	Font     pdfFont   `json:"font"`
}

type pdfFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// WriteSummary writes the KPI summary PDF export.
func (w *PDFWriter) WriteSummary(name string, report domain.KPIReport, quality domain.QualityReport) error {
	doc := buildSummaryDocument(report, quality)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal pdf document: %w", err)
	}

	path := w.paths.ExportPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	jsonPath := path + ".json.tmp"
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write pdf description: %w", err)
	}
	defer os.Remove(jsonPath)

	if err := api.CreateFile("", jsonPath, path, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	slog.Info("wrote pdf export", slog.String("file", name))
	return nil
}

// buildSummaryDocument lays the KPI summary out top to bottom on an A4
// page: title, generation stamp, one block per category, then quality.
func buildSummaryDocument(report domain.KPIReport, quality domain.QualityReport) pdfDocument {
	const (
		left     = 60.0
		top      = 780.0
		lineStep = 16.0
	)

	var texts []pdfText
	y := top

	add := func(value string, size float64, bold bool) {
		font := "Helvetica"
		if bold {
			font = "Helvetica-Bold"
		}
		texts = append(texts, pdfText{
			Value:    value,
			Position: []float64{left, y},
			Font:     pdfFont{Name: font, Size: size},
		})
		y -= lineStep
		if size > 12 {
			y -= lineStep / 2
		}
	}

	add("Safety & Compliance Summary", 18, true)
	add("Generated "+report.GeneratedAt.Format("2006-01-02 15:04 MST"), 10, false)
	add("Total records: "+strconv.Itoa(report.TotalRecords()), 10, false)
	y -= lineStep / 2

	for _, cat := range SortedCategories(report.Categories) {
		kpi := report.Categories[cat]
		add(categoryTitle(cat), 12, true)
		add(fmt.Sprintf("  Records: %d from %d sources", kpi.TotalRecords, kpi.SourceCount), 10, false)
		add(fmt.Sprintf("  Open: %d  Closed: %d  In progress: %d  Closure rate: %.1f%%",
			kpi.OpenItems, kpi.ClosedItems, kpi.InProgressItems, kpi.ClosureRate), 10, false)
		if kpi.HighRiskItems > 0 || kpi.AvgRiskScore > 0 {
			add(fmt.Sprintf("  Avg risk: %.2f  Max risk: %.2f  High-risk items: %d",
				kpi.AvgRiskScore, kpi.MaxRiskScore, kpi.HighRiskItems), 10, false)
		}
		if kpi.AvgCompliance > 0 {
			add(fmt.Sprintf("  Avg compliance: %.1f%%", kpi.AvgCompliance), 10, false)
		}
		y -= lineStep / 2
	}

	if len(quality.Categories) > 0 {
		add("Data quality", 12, true)
		for _, cat := range domain.Categories() {
			q, ok := quality.Categories[cat]
			if !ok {
				continue
			}
			add(fmt.Sprintf("  %s: score %.0f/100, %.1f%% missing, %d duplicates",
				categoryTitle(cat), q.QualityScore, q.MissingValuePct, q.DuplicateRows), 10, false)
		}
	}
	if n := len(quality.SourceErrors); n > 0 {
		add(fmt.Sprintf("Skipped sources: %d", n), 10, true)
	}

	return pdfDocument{
		Paper: "A4",
		Pages: map[string]pdfPage{
			"1": {Content: pdfContent{Text: texts}},
		},
	}
}

func categoryTitle(cat domain.Category) string {
	switch cat {
	case domain.CategoryInspections:
		return "Inspections"
	case domain.CategoryIncidents:
		return "Incidents"
	case domain.CategoryRiskAssessments:
		return "Risk Assessments"
	case domain.CategoryContractorAudits:
		return "Contractor Audits"
	default:
		return string(cat)
	}
}
