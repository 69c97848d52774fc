// Package operations runs the refresh pipeline: discover source files,
// parse them, unify into category tables, aggregate KPIs, write exports
// and persist a snapshot. The Manager tracks running operations and
// broadcasts progress events.
package operations

import (
	"context"

	"hsecli/internal/files"
	"hsecli/pkg/contracts/domain"
)

// Stage is one step of the refresh pipeline. Stages run in order and
// share a State; a failing stage aborts the operation.
type Stage interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *State) error
}

// State carries the data flowing through one refresh run.
type State struct {
	// Discover
	Files []files.FileInfo

	// Parse
	Tables       []domain.RawTable
	SourceErrors []domain.SourceError

	// Unify
	Unified              map[domain.Category][]domain.SafetyRecord
	UncategorizedSrcs    []string
	DuplicatesDropped    int
	DuplicatesByCategory map[domain.Category]int

	// Aggregate
	KPIs     domain.KPIReport
	Quality  domain.QualityReport
	Insights []domain.Insight
	Trends   []domain.Trend

	// Export
	ExportsWritten []string

	// Persist
	SnapshotID int64

	progress ProgressFunc
}

// ProgressFunc receives stage progress while the pipeline runs.
type ProgressFunc func(stage string, percent float64, message string)

// Report emits a progress event when a callback is wired.
func (s *State) Report(stage string, percent float64, message string) {
	if s.progress != nil {
		s.progress(stage, percent, message)
	}
}

// TotalRecords sums the unified tables.
func (s *State) TotalRecords() int {
	total := 0
	for _, records := range s.Unified {
		total += len(records)
	}
	return total
}
