package domain

import "time"

// DateRange bounds the dates observed in a unified table.
type DateRange struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// CategoryKPI holds the scalar aggregates computed for one unified table.
type CategoryKPI struct {
	Category        Category       `json:"category"`
	TotalRecords    int            `json:"total_records"`
	SourceCount     int            `json:"source_count"`
	OpenItems       int            `json:"open_items"`
	ClosedItems     int            `json:"closed_items"`
	InProgressItems int            `json:"in_progress_items"`
	ClosureRate     float64        `json:"closure_rate"`
	AvgRiskScore    float64        `json:"avg_risk_score"`
	MaxRiskScore    float64        `json:"max_risk_score"`
	HighRiskItems   int            `json:"high_risk_items"`
	AvgCompliance   float64        `json:"avg_compliance"`
	DateRange       *DateRange     `json:"date_range,omitempty"`
	StatusDist      map[string]int `json:"status_distribution"`
	DepartmentDist  map[string]int `json:"department_distribution"`
	ActivityDist    map[string]int `json:"activity_distribution"`
}

// DepartmentPerformance summarizes one department across a unified table.
type DepartmentPerformance struct {
	Department    string  `json:"department"`
	TotalItems    int     `json:"total_items"`
	ClosureRate   float64 `json:"closure_rate"`
	AvgRiskScore  float64 `json:"avg_risk_score"`
	AvgCompliance float64 `json:"avg_compliance"`
	HighRiskItems int     `json:"high_risk_items"`
}

// KPIReport bundles the per-category KPIs of one processing run.
type KPIReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Categories  map[Category]CategoryKPI `json:"categories"`
	Departments []DepartmentPerformance  `json:"departments,omitempty"`
}

// TotalRecords sums record counts across categories.
func (r KPIReport) TotalRecords() int {
	total := 0
	for _, kpi := range r.Categories {
		total += kpi.TotalRecords
	}
	return total
}
