package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	"hsecli/pkg/contracts/domain"
)

// Trend stability band: changes within ±5% count as stable.
const trendStabilityPct = 5.0

// ComputeTrend compares the mean of the most recent window of values
// against the mean of the values before it. Values are ordered oldest to
// newest. At least two data points are required.
func ComputeTrend(metric string, values []float64, window int) domain.Trend {
	trend := domain.Trend{
		Metric:     metric,
		DataPoints: len(values),
	}
	if len(values) < 2 {
		trend.Direction = domain.TrendInsufficientData
		return trend
	}

	if window < 1 {
		window = 1
	}
	if window >= len(values) {
		window = len(values) - 1
	}

	recent := mean(values[len(values)-window:])
	older := mean(values[:len(values)-window])

	switch {
	case older == 0 && recent == 0:
		trend.Direction = domain.TrendStable
	case older == 0:
		trend.ChangePct = 100
		trend.Direction = domain.TrendIncreasing
	default:
		trend.ChangePct = (recent - older) / math.Abs(older) * 100
		switch {
		case trend.ChangePct > trendStabilityPct:
			trend.Direction = domain.TrendIncreasing
		case trend.ChangePct < -trendStabilityPct:
			trend.Direction = domain.TrendDecreasing
		default:
			trend.Direction = domain.TrendStable
		}
	}

	return trend
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Insight rule thresholds.
const (
	lowClosureRatePct   = 50.0
	goodClosureRatePct  = 80.0
	lowCompliancePct    = 70.0
	goodCompliancePct   = 90.0
	lowQualityScore     = 60.0
	minInsightRecords   = 5
	highRiskShareAlert  = 0.2
	confidenceFullData  = 0.9
	confidenceSmallData = 0.6
)

// GenerateInsights derives rule-based observations from the KPI and
// quality reports of one run. Insights are ordered most severe first.
func GenerateInsights(kpis domain.KPIReport, quality domain.QualityReport) []domain.Insight {
	var insights []domain.Insight

	for _, category := range domain.Categories() {
		kpi, ok := kpis.Categories[category]
		if !ok {
			continue
		}
		insights = append(insights, categoryInsights(kpi)...)
	}

	for _, category := range domain.Categories() {
		q, ok := quality.Categories[category]
		if !ok {
			continue
		}
		if q.QualityScore < lowQualityScore {
			insights = append(insights, domain.Insight{
				Severity:       domain.InsightWarning,
				Category:       category,
				Title:          "جودة بيانات منخفضة",
				Message:        fmt.Sprintf("درجة جودة البيانات %.0f من 100 (نسبة القيم المفقودة %.1f%%).", q.QualityScore, q.MissingValuePct),
				Confidence:     confidenceFullData,
				DataPoints:     q.TotalRows,
				Recommendation: "مراجعة ملفات المصدر واستكمال الأعمدة الناقصة قبل الرفع.",
			})
		}
	}

	if n := len(quality.SourceErrors); n > 0 {
		insights = append(insights, domain.Insight{
			Severity:       domain.InsightError,
			Title:          "ملفات مصدر متعذرة",
			Message:        fmt.Sprintf("تعذرت معالجة %d من ملفات المصدر؛ البيانات الموحدة غير مكتملة.", n),
			Confidence:     1,
			DataPoints:     n,
			Recommendation: "مراجعة سجل الأخطاء وإعادة تصدير الملفات المتعذرة.",
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return severityRank(insights[i].Severity) < severityRank(insights[j].Severity)
	})

	return insights
}

func categoryInsights(kpi domain.CategoryKPI) []domain.Insight {
	if kpi.TotalRecords == 0 {
		return nil
	}

	confidence := confidenceFullData
	if kpi.TotalRecords < minInsightRecords {
		confidence = confidenceSmallData
	}

	var insights []domain.Insight
	resolved := kpi.OpenItems + kpi.ClosedItems + kpi.InProgressItems

	if resolved > 0 {
		switch {
		case kpi.ClosureRate < lowClosureRatePct:
			insights = append(insights, domain.Insight{
				Severity:       domain.InsightWarning,
				Category:       kpi.Category,
				Title:          "معدل إغلاق منخفض",
				Message:        fmt.Sprintf("معدل الإغلاق %.1f%% فقط، مع %d بند مفتوح.", kpi.ClosureRate, kpi.OpenItems),
				Confidence:     confidence,
				DataPoints:     resolved,
				Recommendation: "متابعة البنود المفتوحة مع الإدارات المعنية وتحديد مواعيد إغلاق.",
			})
		case kpi.ClosureRate >= goodClosureRatePct:
			insights = append(insights, domain.Insight{
				Severity:   domain.InsightSuccess,
				Category:   kpi.Category,
				Title:      "معدل إغلاق جيد",
				Message:    fmt.Sprintf("تم إغلاق %.1f%% من البنود.", kpi.ClosureRate),
				Confidence: confidence,
				DataPoints: resolved,
			})
		}
	}

	if kpi.HighRiskItems > 0 {
		share := float64(kpi.HighRiskItems) / float64(kpi.TotalRecords)
		severity := domain.InsightInfo
		if share >= highRiskShareAlert {
			severity = domain.InsightWarning
		}
		insights = append(insights, domain.Insight{
			Severity:       severity,
			Category:       kpi.Category,
			Title:          "بنود عالية المخاطر",
			Message:        fmt.Sprintf("%d بند بدرجة مخاطرة عالية (الحد الأقصى %.2f).", kpi.HighRiskItems, kpi.MaxRiskScore),
			Confidence:     confidence,
			DataPoints:     kpi.TotalRecords,
			Recommendation: "ترتيب البنود عالية المخاطر حسب الأولوية ومعالجتها أولاً.",
		})
	}

	if kpi.AvgCompliance > 0 {
		switch {
		case kpi.AvgCompliance < lowCompliancePct:
			insights = append(insights, domain.Insight{
				Severity:       domain.InsightWarning,
				Category:       kpi.Category,
				Title:          "نسبة التزام منخفضة",
				Message:        fmt.Sprintf("متوسط نسبة الالتزام %.1f%%.", kpi.AvgCompliance),
				Confidence:     confidence,
				DataPoints:     kpi.TotalRecords,
				Recommendation: "تدقيق الجهات ذات الالتزام الأدنى ووضع خطط تصحيحية.",
			})
		case kpi.AvgCompliance >= goodCompliancePct:
			insights = append(insights, domain.Insight{
				Severity:   domain.InsightSuccess,
				Category:   kpi.Category,
				Title:      "نسبة التزام مرتفعة",
				Message:    fmt.Sprintf("متوسط نسبة الالتزام %.1f%%.", kpi.AvgCompliance),
				Confidence: confidence,
				DataPoints: kpi.TotalRecords,
			})
		}
	}

	return insights
}

func severityRank(s domain.InsightSeverity) int {
	switch s {
	case domain.InsightError:
		return 0
	case domain.InsightWarning:
		return 1
	case domain.InsightInfo:
		return 2
	default:
		return 3
	}
}
