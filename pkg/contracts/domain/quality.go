package domain

import "time"

// CategoryQuality reports data quality for one unified table.
type CategoryQuality struct {
	Category          Category `json:"category"`
	TotalRows         int      `json:"total_rows"`
	TotalColumns      int      `json:"total_columns"`
	MissingValuePct   float64  `json:"missing_value_pct"`
	DuplicateRows     int      `json:"duplicate_rows"`
	RecordsWithDate   int      `json:"records_with_date"`
	RecordsWithStatus int      `json:"records_with_status"`
	QualityScore      float64  `json:"quality_score"`
}

// QualityReport covers all unified tables of one run plus the sources
// that had to be skipped.
type QualityReport struct {
	GeneratedAt  time.Time                    `json:"generated_at"`
	Categories   map[Category]CategoryQuality `json:"categories"`
	SourceErrors []SourceError                `json:"source_errors,omitempty"`
}

// Score computes the overall quality score for a category: completeness
// minus a duplicate penalty, clamped to [0,100].
func (q CategoryQuality) Score() float64 {
	completeness := 100 - q.MissingValuePct
	penalty := 0.0
	if q.TotalRows > 0 {
		penalty = float64(q.DuplicateRows) / float64(q.TotalRows) * 100
	}
	score := completeness - penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
