package domain

import (
	"strings"
	"time"
)

// Category identifies a unified dataset built from same-kind source tables.
type Category string

const (
	CategoryInspections      Category = "inspections"
	CategoryIncidents        Category = "incidents"
	CategoryRiskAssessments  Category = "risk_assessments"
	CategoryContractorAudits Category = "contractor_audits"
)

// Categories lists all known categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryInspections,
		CategoryIncidents,
		CategoryRiskAssessments,
		CategoryContractorAudits,
	}
}

// categoryKeywords maps each category to the Arabic and English markers
// found in source file and sheet names.
var categoryKeywords = map[Category][]string{
	CategoryInspections:      {"تفتيش", "ملاحظات المواقع", "inspection", "site_audit", "site audit"},
	CategoryIncidents:        {"حوادث", "حادث", "incident", "accident"},
	CategoryRiskAssessments:  {"مخاطر", "تقييم المخاطر", "risk"},
	CategoryContractorAudits: {"مقاولين", "تدقيق المقاولين", "contractor"},
}

// DetectCategory guesses the category of a source from its file or sheet
// name. The second return value is false when no marker matches.
func DetectCategory(sourceName string) (Category, bool) {
	lower := strings.ToLower(sourceName)
	for _, cat := range Categories() {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				return cat, true
			}
		}
	}
	return "", false
}

// Status is the canonical (Arabic) status vocabulary shared by all
// categories after normalization.
type Status string

const (
	StatusOpen       Status = "مفتوح"
	StatusClosed     Status = "مغلق"
	StatusInProgress Status = "قيد التنفيذ"
	StatusUnknown    Status = ""
)

// SafetyRecord is a unified row from any source table after column roles
// have been resolved and values normalized.
type SafetyRecord struct {
	RecordID        string    `json:"record_id"`
	Source          string    `json:"source"`
	Category        Category  `json:"category"`
	Date            time.Time `json:"date,omitempty"`
	HasDate         bool      `json:"has_date"`
	Status          Status    `json:"status"`
	RawStatus       string    `json:"raw_status,omitempty"`
	Classification  string    `json:"classification,omitempty"`
	Department      string    `json:"department,omitempty"`
	ActivityType    string    `json:"activity_type,omitempty"`
	Unit            string    `json:"unit,omitempty"`
	RiskScore       float64   `json:"risk_score,omitempty"`
	HasRiskScore    bool      `json:"has_risk_score"`
	ComplianceScore float64   `json:"compliance_score,omitempty"`
	HasCompliance   bool      `json:"has_compliance"`

	// Extra keeps cleaned values from columns that matched no role, so
	// exports lose nothing from the source tables.
	Extra map[string]string `json:"extra,omitempty"`
}

// Key returns a stable identity for duplicate detection: records from the
// same source with the same id, date and status are considered duplicates.
func (r SafetyRecord) Key() string {
	date := ""
	if r.HasDate {
		date = r.Date.Format("2006-01-02")
	}
	return strings.Join([]string{r.Source, r.RecordID, date, string(r.Status), r.Department, r.ActivityType}, "\x1f")
}
