package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"hsecli/internal/config"
	"hsecli/internal/dataprocessing"
	"hsecli/internal/files"
	"hsecli/internal/store"
	"hsecli/pkg/contracts/domain"
)

// DataService serves dashboard reads from the latest persisted snapshot.
type DataService struct {
	snapshots  *store.Store
	exports    *files.Manager
	processing config.ProcessingConfig
	logger     *slog.Logger
}

// NewDataService creates a data service over the snapshot store. exports
// may be nil when no exports directory is served.
func NewDataService(snapshots *store.Store, exports *files.Manager, processing config.ProcessingConfig, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		snapshots:  snapshots,
		exports:    exports,
		processing: processing,
		logger:     logger.With(slog.String("component", "data_service")),
	}
}

// ExportFile describes one generated export on disk.
type ExportFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Exports lists the generated export files, sorted by name.
func (s *DataService) Exports(ctx context.Context) ([]ExportFile, error) {
	if s.exports == nil {
		return nil, nil
	}
	listed, err := s.exports.ListExports()
	if err != nil {
		return nil, err
	}
	exports := make([]ExportFile, 0, len(listed))
	for _, file := range listed {
		exports = append(exports, ExportFile{
			Name:     file.Name,
			Size:     file.Size,
			Modified: file.ModTime,
		})
	}
	return exports, nil
}

// KPIs returns the KPI report of the latest snapshot.
func (s *DataService) KPIs(ctx context.Context) (domain.KPIReport, error) {
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		return domain.KPIReport{}, err
	}
	return snap.KPIs, nil
}

// Quality returns the quality report of the latest snapshot.
func (s *DataService) Quality(ctx context.Context) (domain.QualityReport, error) {
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		return domain.QualityReport{}, err
	}
	return snap.Quality, nil
}

// CategorySummary is the dashboard list entry for one unified table.
type CategorySummary struct {
	Category     domain.Category `json:"category"`
	TotalRecords int             `json:"total_records"`
	OpenItems    int             `json:"open_items"`
	ClosureRate  float64         `json:"closure_rate"`
	QualityScore float64         `json:"quality_score"`
}

// Categories lists the unified tables present in the latest snapshot in
// canonical order.
func (s *DataService) Categories(ctx context.Context) ([]CategorySummary, error) {
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	var summaries []CategorySummary
	for _, category := range domain.Categories() {
		kpi, ok := snap.KPIs.Categories[category]
		if !ok {
			continue
		}
		summary := CategorySummary{
			Category:     category,
			TotalRecords: kpi.TotalRecords,
			OpenItems:    kpi.OpenItems,
			ClosureRate:  kpi.ClosureRate,
		}
		if q, ok := snap.Quality.Categories[category]; ok {
			summary.QualityScore = q.QualityScore
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RecordFilter narrows a category record listing.
type RecordFilter struct {
	Status     string
	Department string
	Limit      int
	Offset     int
}

// RecordPage is one page of category records.
type RecordPage struct {
	Records []domain.SafetyRecord `json:"records"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

const defaultPageSize = 100

// CategoryRecords returns a filtered page of one category's records.
func (s *DataService) CategoryRecords(ctx context.Context, category domain.Category, filter RecordFilter) (RecordPage, error) {
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		return RecordPage{}, err
	}

	// A category absent from the snapshot is still a valid category; it
	// just has no records yet. Serve an empty page rather than an error.
	records := snap.Records[category]

	var filtered []domain.SafetyRecord
	for _, rec := range records {
		if filter.Status != "" && string(rec.Status) != filter.Status && rec.RawStatus != filter.Status {
			continue
		}
		if filter.Department != "" && !strings.Contains(rec.Department, filter.Department) {
			continue
		}
		filtered = append(filtered, rec)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	page := RecordPage{Total: len(filtered), Limit: limit, Offset: offset}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page.Records = filtered[offset:end]
	}
	return page, nil
}

// InsightsReport bundles insights with cross-snapshot trends.
type InsightsReport struct {
	Insights []domain.Insight `json:"insights"`
	Trends   []domain.Trend   `json:"trends,omitempty"`
}

// Insights regenerates insights from the latest snapshot and computes
// trends over the snapshot history.
func (s *DataService) Insights(ctx context.Context) (InsightsReport, error) {
	snap, err := s.snapshots.LatestSnapshot(ctx)
	if err != nil {
		return InsightsReport{}, err
	}

	report := InsightsReport{
		Insights: dataprocessing.GenerateInsights(snap.KPIs, snap.Quality),
	}

	history, err := s.snapshots.KPIHistory(ctx, s.processing.TrendWindow*2)
	if err != nil {
		// Trends are supplementary; insights alone are still useful.
		s.logger.WarnContext(ctx, "kpi history unavailable", slog.String("error", err.Error()))
		return report, nil
	}

	for _, category := range domain.Categories() {
		var open, closureRate []float64
		for _, kpis := range history {
			kpi, ok := kpis.Categories[category]
			if !ok {
				continue
			}
			open = append(open, float64(kpi.OpenItems))
			closureRate = append(closureRate, kpi.ClosureRate)
		}
		if len(open) < 2 {
			continue
		}
		report.Trends = append(report.Trends,
			dataprocessing.ComputeTrend(string(category)+".open_items", open, s.processing.TrendWindow),
			dataprocessing.ComputeTrend(string(category)+".closure_rate", closureRate, s.processing.TrendWindow),
		)
	}

	sort.SliceStable(report.Trends, func(i, j int) bool {
		return report.Trends[i].Metric < report.Trends[j].Metric
	})
	return report, nil
}
