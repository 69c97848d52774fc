package dataprocessing

import (
	"sort"
	"time"

	"hsecli/pkg/contracts/domain"
)

// KPICalculator computes the aggregate report over unified tables.
type KPICalculator struct {
	highRiskLevel float64
}

// NewKPICalculator builds a calculator. highRiskLevel is the 0..1 risk
// score at or above which a record counts as a high-risk item.
func NewKPICalculator(highRiskLevel float64) *KPICalculator {
	return &KPICalculator{highRiskLevel: highRiskLevel}
}

// Compute builds the KPI report for one processing run.
func (c *KPICalculator) Compute(tables map[domain.Category][]domain.SafetyRecord) domain.KPIReport {
	report := domain.KPIReport{
		GeneratedAt: time.Now().UTC(),
		Categories:  make(map[domain.Category]domain.CategoryKPI),
	}

	for _, category := range domain.Categories() {
		records, ok := tables[category]
		if !ok || len(records) == 0 {
			continue
		}
		report.Categories[category] = c.categoryKPI(category, records)
	}

	report.Departments = c.departmentPerformance(tables)
	return report
}

func (c *KPICalculator) categoryKPI(category domain.Category, records []domain.SafetyRecord) domain.CategoryKPI {
	kpi := domain.CategoryKPI{
		Category:       category,
		TotalRecords:   len(records),
		StatusDist:     make(map[string]int),
		DepartmentDist: make(map[string]int),
		ActivityDist:   make(map[string]int),
	}

	sources := make(map[string]bool)
	var riskSum, complianceSum float64
	var riskCount, complianceCount int

	for _, rec := range records {
		sources[rec.Source] = true

		switch rec.Status {
		case domain.StatusOpen:
			kpi.OpenItems++
		case domain.StatusClosed:
			kpi.ClosedItems++
		case domain.StatusInProgress:
			kpi.InProgressItems++
		}
		kpi.StatusDist[statusLabel(rec)]++

		if rec.Department != "" {
			kpi.DepartmentDist[rec.Department]++
		}
		if rec.ActivityType != "" {
			kpi.ActivityDist[rec.ActivityType]++
		}

		if rec.HasRiskScore {
			riskSum += rec.RiskScore
			riskCount++
			if rec.RiskScore > kpi.MaxRiskScore {
				kpi.MaxRiskScore = rec.RiskScore
			}
			if rec.RiskScore >= c.highRiskLevel {
				kpi.HighRiskItems++
			}
		}
		if rec.HasCompliance {
			complianceSum += rec.ComplianceScore
			complianceCount++
		}

		if rec.HasDate {
			if kpi.DateRange == nil {
				kpi.DateRange = &domain.DateRange{Min: rec.Date, Max: rec.Date}
			} else {
				if rec.Date.Before(kpi.DateRange.Min) {
					kpi.DateRange.Min = rec.Date
				}
				if rec.Date.After(kpi.DateRange.Max) {
					kpi.DateRange.Max = rec.Date
				}
			}
		}
	}

	kpi.SourceCount = len(sources)

	// Closure rate counts only records whose status resolved: unknown
	// statuses would otherwise drag the rate down for reasons the data
	// quality report already covers.
	resolved := kpi.OpenItems + kpi.ClosedItems + kpi.InProgressItems
	if resolved > 0 {
		kpi.ClosureRate = float64(kpi.ClosedItems) / float64(resolved) * 100
	}
	if riskCount > 0 {
		kpi.AvgRiskScore = riskSum / float64(riskCount)
	}
	if complianceCount > 0 {
		kpi.AvgCompliance = complianceSum / float64(complianceCount)
	}

	return kpi
}

// statusLabel keys the status distribution: canonical statuses by their
// canonical form, unrecognized ones by their raw value so nothing hides.
func statusLabel(rec domain.SafetyRecord) string {
	if rec.Status != domain.StatusUnknown {
		return string(rec.Status)
	}
	if rec.RawStatus != "" {
		return rec.RawStatus
	}
	return "غير محدد"
}

func (c *KPICalculator) departmentPerformance(tables map[domain.Category][]domain.SafetyRecord) []domain.DepartmentPerformance {
	type acc struct {
		total, closed, resolved int
		riskSum                 float64
		riskCount               int
		complianceSum           float64
		complianceCount         int
		highRisk                int
	}
	byDept := make(map[string]*acc)

	for _, records := range tables {
		for _, rec := range records {
			if rec.Department == "" {
				continue
			}
			a := byDept[rec.Department]
			if a == nil {
				a = &acc{}
				byDept[rec.Department] = a
			}
			a.total++
			switch rec.Status {
			case domain.StatusClosed:
				a.closed++
				a.resolved++
			case domain.StatusOpen, domain.StatusInProgress:
				a.resolved++
			}
			if rec.HasRiskScore {
				a.riskSum += rec.RiskScore
				a.riskCount++
				if rec.RiskScore >= c.highRiskLevel {
					a.highRisk++
				}
			}
			if rec.HasCompliance {
				a.complianceSum += rec.ComplianceScore
				a.complianceCount++
			}
		}
	}

	perf := make([]domain.DepartmentPerformance, 0, len(byDept))
	for dept, a := range byDept {
		p := domain.DepartmentPerformance{
			Department:    dept,
			TotalItems:    a.total,
			HighRiskItems: a.highRisk,
		}
		if a.resolved > 0 {
			p.ClosureRate = float64(a.closed) / float64(a.resolved) * 100
		}
		if a.riskCount > 0 {
			p.AvgRiskScore = a.riskSum / float64(a.riskCount)
		}
		if a.complianceCount > 0 {
			p.AvgCompliance = a.complianceSum / float64(a.complianceCount)
		}
		perf = append(perf, p)
	}

	sort.Slice(perf, func(i, j int) bool {
		if perf[i].TotalItems != perf[j].TotalItems {
			return perf[i].TotalItems > perf[j].TotalItems
		}
		return perf[i].Department < perf[j].Department
	})

	return perf
}
