package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"hsecli/pkg/contracts/domain"
)

// UnifyResult is the outcome of merging all parsed tables into the
// per-category unified datasets.
type UnifyResult struct {
	Tables        map[domain.Category][]domain.SafetyRecord
	Uncategorized []domain.RawTable
	SourceErrors  []domain.SourceError
}

// Unifier merges raw tables into unified category datasets.
type Unifier struct{}

func NewUnifier() *Unifier {
	return &Unifier{}
}

// Unify groups tables by detected category, converts rows to unified
// records and collects tables whose category could not be detected.
// Parse-stage failures are passed through so the quality report can
// surface them next to the unified data.
func (u *Unifier) Unify(tables []domain.RawTable, sourceErrors []domain.SourceError) UnifyResult {
	result := UnifyResult{
		Tables:       make(map[domain.Category][]domain.SafetyRecord),
		SourceErrors: sourceErrors,
	}

	for _, table := range tables {
		category, ok := categorize(table)
		if !ok {
			slog.Warn("table category not detected",
				slog.String("source", table.QualifiedName()))
			result.Uncategorized = append(result.Uncategorized, table)
			continue
		}

		records := u.convertTable(table, category)
		result.Tables[category] = append(result.Tables[category], records...)
	}

	for category, records := range result.Tables {
		sortRecords(records)
		slog.Info("unified category table",
			slog.String("category", string(category)),
			slog.Int("records", len(records)))
	}

	return result
}

// categorize tries the sheet name first, then the file name. Sheet names
// are more specific: a workbook named after a department can still carry
// one sheet per category.
func categorize(table domain.RawTable) (domain.Category, bool) {
	if table.Sheet != "" {
		if cat, ok := domain.DetectCategory(table.Sheet); ok {
			return cat, true
		}
	}
	return domain.DetectCategory(table.Source)
}

func (u *Unifier) convertTable(table domain.RawTable, category domain.Category) []domain.SafetyRecord {
	records := make([]domain.SafetyRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		records = append(records, recordFromRow(table, category, i, row))
	}
	return records
}

// recordFromRow maps one raw row to a unified record using the table's
// detected column roles. Rows without an id column get a synthetic
// source-scoped id so duplicate detection and drill-down stay possible.
func recordFromRow(table domain.RawTable, category domain.Category, rowIdx int, row []string) domain.SafetyRecord {
	rec := domain.SafetyRecord{
		Source:   table.QualifiedName(),
		Category: category,
	}

	cell := func(role domain.ColumnRole) (string, bool) {
		idx, ok := table.Roles[role]
		if !ok || idx >= len(row) {
			return "", false
		}
		return NormalizeText(row[idx]), true
	}

	if id, ok := cell(domain.RoleRecordID); ok && id != "" {
		rec.RecordID = FoldDigits(id)
	} else {
		rec.RecordID = fmt.Sprintf("%s-%d", table.Source, rowIdx+1)
	}

	if raw, ok := cell(domain.RoleDate); ok {
		if date, parsed := ParseDate(raw); parsed {
			rec.Date = date
			rec.HasDate = true
		}
	}

	if raw, ok := cell(domain.RoleStatus); ok && raw != "" {
		rec.RawStatus = raw
		rec.Status = NormalizeStatus(raw)
	}

	rec.Classification, _ = cell(domain.RoleClassification)
	rec.Department, _ = cell(domain.RoleDepartment)
	rec.ActivityType, _ = cell(domain.RoleActivity)
	rec.Unit, _ = cell(domain.RoleUnit)

	if raw, ok := cell(domain.RoleRiskScore); ok {
		if score, parsed := NormalizeRisk(raw); parsed {
			rec.RiskScore = score
			rec.HasRiskScore = true
		}
	}

	if raw, ok := cell(domain.RoleComplianceScore); ok {
		if score, parsed := NormalizeCompliance(raw); parsed {
			rec.ComplianceScore = score
			rec.HasCompliance = true
		}
	}

	rec.Extra = extraColumns(table, row)
	return rec
}

// extraColumns keeps cleaned values from columns that matched no role.
func extraColumns(table domain.RawTable, row []string) map[string]string {
	assigned := make(map[int]bool, len(table.Roles))
	for _, idx := range table.Roles {
		assigned[idx] = true
	}

	var extra map[string]string
	for i, header := range table.Headers {
		if assigned[i] || i >= len(row) {
			continue
		}
		value := NormalizeText(row[i])
		if value == "" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[header] = value
	}
	return extra
}

// sortRecords orders a unified table by date descending (undated records
// last), then by source and id for a stable output.
func sortRecords(records []domain.SafetyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.HasDate != b.HasDate {
			return a.HasDate
		}
		if a.HasDate && !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return strings.Compare(a.RecordID, b.RecordID) < 0
	})
}

// Deduplicate returns the records with exact duplicates removed and the
// number of duplicates dropped. The first occurrence wins.
func Deduplicate(records []domain.SafetyRecord) ([]domain.SafetyRecord, int) {
	seen := make(map[string]bool, len(records))
	unique := records[:0:0]
	dropped := 0
	for _, rec := range records {
		key := rec.Key()
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		unique = append(unique, rec)
	}
	return unique, dropped
}
