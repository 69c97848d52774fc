package domain

// InsightSeverity ranks generated insights for display ordering.
type InsightSeverity string

const (
	InsightSuccess InsightSeverity = "success"
	InsightInfo    InsightSeverity = "info"
	InsightWarning InsightSeverity = "warning"
	InsightError   InsightSeverity = "error"
)

// Insight is a rule-generated observation about a unified table.
type Insight struct {
	Severity       InsightSeverity `json:"severity"`
	Category       Category        `json:"category,omitempty"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Confidence     float64         `json:"confidence"`
	DataPoints     int             `json:"data_points"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// TrendDirection classifies the movement of a metric across snapshots.
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// Trend is the change of a metric between the older and the recent halves
// of the snapshot history window.
type Trend struct {
	Metric     string         `json:"metric"`
	ChangePct  float64        `json:"change_pct"`
	Direction  TrendDirection `json:"direction"`
	DataPoints int            `json:"data_points"`
}
