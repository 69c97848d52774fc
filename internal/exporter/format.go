package exporter

import (
	"sort"
	"strconv"

	"hsecli/pkg/contracts/domain"
)

// RecordHeaders is the column order of every unified table export.
// Arabic labels because the files are opened by Arabic-speaking users.
var RecordHeaders = []string{
	"الرقم",
	"المصدر",
	"الفئة",
	"التاريخ",
	"الحالة",
	"التصنيف",
	"الإدارة",
	"النشاط",
	"الوحدة",
	"درجة المخاطرة",
	"نسبة الالتزام",
}

// RecordRow flattens a unified record into the export column order.
func RecordRow(rec domain.SafetyRecord) []string {
	date := ""
	if rec.HasDate {
		date = rec.Date.Format("2006-01-02")
	}
	risk := ""
	if rec.HasRiskScore {
		risk = formatFloat(rec.RiskScore)
	}
	compliance := ""
	if rec.HasCompliance {
		compliance = formatFloat(rec.ComplianceScore)
	}
	status := string(rec.Status)
	if rec.Status == domain.StatusUnknown {
		status = rec.RawStatus
	}

	return []string{
		rec.RecordID,
		rec.Source,
		string(rec.Category),
		date,
		status,
		rec.Classification,
		rec.Department,
		rec.ActivityType,
		rec.Unit,
		risk,
		compliance,
	}
}

// KPIHeaders is the column order of the KPI summary export.
var KPIHeaders = []string{
	"الفئة",
	"إجمالي السجلات",
	"عدد المصادر",
	"مفتوح",
	"مغلق",
	"قيد التنفيذ",
	"معدل الإغلاق %",
	"متوسط المخاطرة",
	"أقصى مخاطرة",
	"بنود عالية المخاطر",
	"متوسط الالتزام %",
}

// KPIRow flattens one category's KPIs into the export column order.
func KPIRow(kpi domain.CategoryKPI) []string {
	return []string{
		string(kpi.Category),
		strconv.Itoa(kpi.TotalRecords),
		strconv.Itoa(kpi.SourceCount),
		strconv.Itoa(kpi.OpenItems),
		strconv.Itoa(kpi.ClosedItems),
		strconv.Itoa(kpi.InProgressItems),
		formatFloat(kpi.ClosureRate),
		formatFloat(kpi.AvgRiskScore),
		formatFloat(kpi.MaxRiskScore),
		strconv.Itoa(kpi.HighRiskItems),
		formatFloat(kpi.AvgCompliance),
	}
}

// SortedCategories returns the categories present in the report in
// canonical order, so exports stay deterministic.
func SortedCategories(categories map[domain.Category]domain.CategoryKPI) []domain.Category {
	var present []domain.Category
	for _, cat := range domain.Categories() {
		if _, ok := categories[cat]; ok {
			present = append(present, cat)
		}
	}
	// Unknown categories, if any ever appear, go last alphabetically.
	var rest []domain.Category
	for cat := range categories {
		if !isKnown(cat) {
			rest = append(rest, cat)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(present, rest...)
}

func isKnown(cat domain.Category) bool {
	for _, known := range domain.Categories() {
		if cat == known {
			return true
		}
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
