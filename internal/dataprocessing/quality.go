package dataprocessing

import (
	"time"

	"hsecli/pkg/contracts/domain"
)

// qualityColumns is the number of unified fields counted for the missing
// value percentage: id, date, status, classification, department,
// activity and unit. Score columns are excluded because most categories
// legitimately carry only one of the two.
const qualityColumns = 7

// BuildQualityReport measures completeness and duplication per unified
// table and attaches the source-level failures of the run. duplicates
// carries rows already dropped by deduplication, per category, so the
// report still reflects duplication in the source data after the
// unified tables have been deduplicated; pass nil when the tables still
// contain their duplicates.
func BuildQualityReport(tables map[domain.Category][]domain.SafetyRecord, duplicates map[domain.Category]int, sourceErrors []domain.SourceError) domain.QualityReport {
	report := domain.QualityReport{
		GeneratedAt:  time.Now().UTC(),
		Categories:   make(map[domain.Category]domain.CategoryQuality),
		SourceErrors: sourceErrors,
	}

	for _, category := range domain.Categories() {
		records, ok := tables[category]
		if !ok || len(records) == 0 {
			continue
		}
		report.Categories[category] = categoryQuality(category, records, duplicates[category])
	}

	return report
}

func categoryQuality(category domain.Category, records []domain.SafetyRecord, dropped int) domain.CategoryQuality {
	q := domain.CategoryQuality{
		Category:      category,
		TotalRows:     len(records),
		TotalColumns:  qualityColumns,
		DuplicateRows: dropped,
	}

	missing := 0
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		missing += missingFields(rec)
		if rec.HasDate {
			q.RecordsWithDate++
		}
		if rec.Status != domain.StatusUnknown {
			q.RecordsWithStatus++
		}
		key := rec.Key()
		if seen[key] {
			q.DuplicateRows++
		}
		seen[key] = true
	}

	totalCells := len(records) * qualityColumns
	if totalCells > 0 {
		q.MissingValuePct = float64(missing) / float64(totalCells) * 100
	}
	q.QualityScore = q.Score()

	return q
}

func missingFields(rec domain.SafetyRecord) int {
	missing := 0
	if rec.RecordID == "" {
		missing++
	}
	if !rec.HasDate {
		missing++
	}
	if rec.Status == domain.StatusUnknown && rec.RawStatus == "" {
		missing++
	}
	if rec.Classification == "" {
		missing++
	}
	if rec.Department == "" {
		missing++
	}
	if rec.ActivityType == "" {
		missing++
	}
	if rec.Unit == "" {
		missing++
	}
	return missing
}
