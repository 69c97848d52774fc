package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"hsecli/internal/config"
	"hsecli/internal/dataprocessing"
	apperrors "hsecli/internal/errors"
	"hsecli/internal/exporter"
	"hsecli/internal/files"
	"hsecli/internal/store"
	"hsecli/pkg/contracts/domain"
)

// Stage IDs, also used as progress event names.
const (
	StageDiscover  = "discover"
	StageParse     = "parse"
	StageUnify     = "unify"
	StageAggregate = "aggregate"
	StageExport    = "export"
	StagePersist   = "persist"
)

// Export file names written by the export stage.
const (
	ExportWorkbook = "unified.xlsx"
	ExportKPIsJSON = "kpis.json"
	ExportKPIsCSV  = "kpis.csv"
	ExportQuality  = "quality.json"
	ExportInsights = "insights.json"
	ExportSummary  = "summary.pdf"
)

// DiscoverStage lists the source files to ingest.
type DiscoverStage struct {
	discovery *files.Discovery
}

func NewDiscoverStage(discovery *files.Discovery) *DiscoverStage {
	return &DiscoverStage{discovery: discovery}
}

func (s *DiscoverStage) ID() string   { return StageDiscover }
func (s *DiscoverStage) Name() string { return "Discover source files" }

func (s *DiscoverStage) Execute(ctx context.Context, state *State) error {
	state.Report(s.ID(), 0, "scanning sources directory")

	found, err := s.discovery.FindSourceFiles(".")
	if err != nil {
		return apperrors.NewParsingError("discover source files", err)
	}
	if len(found) == 0 {
		return apperrors.NewParsingError("no source files found", nil)
	}

	state.Files = found
	state.Report(s.ID(), 100, fmt.Sprintf("%d source files found", len(found)))
	return nil
}

// ParseStage parses source files concurrently. A file that fails to
// parse is recorded as a source error and skipped; the run continues
// with whatever could be read.
type ParseStage struct {
	workers int
}

func NewParseStage(cfg config.ProcessingConfig) *ParseStage {
	workers := cfg.ParseWorkers
	if workers < 1 {
		workers = 1
	}
	return &ParseStage{workers: workers}
}

func (s *ParseStage) ID() string   { return StageParse }
func (s *ParseStage) Name() string { return "Parse source files" }

func (s *ParseStage) Execute(ctx context.Context, state *State) error {
	total := len(state.Files)
	state.Report(s.ID(), 0, fmt.Sprintf("parsing %d files", total))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, file := range state.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			tables, err := dataprocessing.ParseFile(file.Path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("skipping source file",
					slog.String("file", file.Name),
					slog.String("error", err.Error()))
				state.SourceErrors = append(state.SourceErrors, domain.SourceError{
					Source: file.Name,
					Err:    err.Error(),
				})
			} else {
				state.Tables = append(state.Tables, tables...)
			}
			done++
			state.Report(s.ID(), float64(done)/float64(total)*100, file.Name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if len(state.Tables) == 0 {
		return apperrors.NewParsingError("no source file could be parsed", nil)
	}

	// Parsing order depends on goroutine scheduling; restore the
	// discovery order so downstream output stays deterministic.
	sort.SliceStable(state.Tables, func(i, j int) bool {
		if state.Tables[i].Source != state.Tables[j].Source {
			return state.Tables[i].Source < state.Tables[j].Source
		}
		return state.Tables[i].Sheet < state.Tables[j].Sheet
	})

	return nil
}

// UnifyStage merges parsed tables into per-category datasets.
type UnifyStage struct {
	unifier *dataprocessing.Unifier
}

func NewUnifyStage() *UnifyStage {
	return &UnifyStage{unifier: dataprocessing.NewUnifier()}
}

func (s *UnifyStage) ID() string   { return StageUnify }
func (s *UnifyStage) Name() string { return "Unify category tables" }

func (s *UnifyStage) Execute(ctx context.Context, state *State) error {
	state.Report(s.ID(), 0, fmt.Sprintf("unifying %d tables", len(state.Tables)))

	result := s.unifier.Unify(state.Tables, state.SourceErrors)

	state.Unified = make(map[domain.Category][]domain.SafetyRecord, len(result.Tables))
	state.DuplicatesByCategory = make(map[domain.Category]int, len(result.Tables))
	for category, records := range result.Tables {
		unique, dropped := dataprocessing.Deduplicate(records)
		state.Unified[category] = unique
		state.DuplicatesDropped += dropped
		if dropped > 0 {
			state.DuplicatesByCategory[category] = dropped
		}
	}
	state.SourceErrors = result.SourceErrors
	for _, table := range result.Uncategorized {
		state.UncategorizedSrcs = append(state.UncategorizedSrcs, table.QualifiedName())
	}

	if state.TotalRecords() == 0 {
		return apperrors.NewUnifyError("no table matched a known category", nil)
	}

	state.Report(s.ID(), 100, fmt.Sprintf("%d records unified", state.TotalRecords()))
	return nil
}

// AggregateStage computes KPIs, the quality report, trends and insights.
type AggregateStage struct {
	calculator  *dataprocessing.KPICalculator
	snapshots   *store.Store
	trendWindow int
}

// NewAggregateStage builds the aggregate stage. snapshots may be nil;
// trends are skipped without a history source.
func NewAggregateStage(cfg config.ProcessingConfig, snapshots *store.Store) *AggregateStage {
	return &AggregateStage{
		calculator:  dataprocessing.NewKPICalculator(cfg.HighRiskLevel),
		snapshots:   snapshots,
		trendWindow: cfg.TrendWindow,
	}
}

func (s *AggregateStage) ID() string   { return StageAggregate }
func (s *AggregateStage) Name() string { return "Aggregate KPIs" }

func (s *AggregateStage) Execute(ctx context.Context, state *State) error {
	state.Report(s.ID(), 0, "computing KPIs")

	state.KPIs = s.calculator.Compute(state.Unified)
	state.Quality = dataprocessing.BuildQualityReport(state.Unified, state.DuplicatesByCategory, state.SourceErrors)
	state.Insights = dataprocessing.GenerateInsights(state.KPIs, state.Quality)

	if s.snapshots != nil {
		trends, err := s.computeTrends(ctx, state.KPIs)
		if err != nil {
			// History is best effort; a broken store must not fail the run.
			slog.Warn("kpi history unavailable", slog.String("error", err.Error()))
		} else {
			state.Trends = trends
		}
	}

	state.Report(s.ID(), 100, fmt.Sprintf("%d categories aggregated", len(state.KPIs.Categories)))
	return nil
}

func (s *AggregateStage) computeTrends(ctx context.Context, current domain.KPIReport) ([]domain.Trend, error) {
	history, err := s.snapshots.KPIHistory(ctx, s.trendWindow*2)
	if err != nil {
		return nil, err
	}
	history = append(history, current)

	var trends []domain.Trend
	for _, category := range domain.Categories() {
		var open, closureRate []float64
		for _, report := range history {
			kpi, ok := report.Categories[category]
			if !ok {
				continue
			}
			open = append(open, float64(kpi.OpenItems))
			closureRate = append(closureRate, kpi.ClosureRate)
		}
		if len(open) < 2 {
			continue
		}
		trends = append(trends,
			dataprocessing.ComputeTrend(string(category)+".open_items", open, s.trendWindow),
			dataprocessing.ComputeTrend(string(category)+".closure_rate", closureRate, s.trendWindow),
		)
	}
	return trends, nil
}

// ExportStage writes all export formats.
type ExportStage struct {
	csv   *exporter.CSVWriter
	excel *exporter.ExcelWriter
	json  *exporter.JSONWriter
	pdf   *exporter.PDFWriter
}

func NewExportStage(paths *config.Paths) *ExportStage {
	return &ExportStage{
		csv:   exporter.NewCSVWriter(paths),
		excel: exporter.NewExcelWriter(paths),
		json:  exporter.NewJSONWriter(paths),
		pdf:   exporter.NewPDFWriter(paths),
	}
}

func (s *ExportStage) ID() string   { return StageExport }
func (s *ExportStage) Name() string { return "Write exports" }

func (s *ExportStage) Execute(ctx context.Context, state *State) error {
	type export struct {
		name  string
		write func() error
	}

	var exports []export
	for _, category := range domain.Categories() {
		records := state.Unified[category]
		if len(records) == 0 {
			continue
		}
		name := string(category) + ".csv"
		exports = append(exports, export{name, func() error {
			return s.csv.WriteRecordsCSV(name, records)
		}})
	}
	exports = append(exports,
		export{ExportWorkbook, func() error { return s.excel.WriteWorkbook(ExportWorkbook, state.Unified, state.KPIs) }},
		export{ExportKPIsJSON, func() error { return s.json.WriteJSON(ExportKPIsJSON, state.KPIs) }},
		export{ExportKPIsCSV, func() error { return s.csv.WriteKPICSV(ExportKPIsCSV, state.KPIs) }},
		export{ExportQuality, func() error { return s.json.WriteJSON(ExportQuality, state.Quality) }},
		export{ExportInsights, func() error { return s.json.WriteJSON(ExportInsights, state.Insights) }},
		export{ExportSummary, func() error { return s.pdf.WriteSummary(ExportSummary, state.KPIs, state.Quality) }},
	)

	for i, e := range exports {
		if err := ctx.Err(); err != nil {
			return err
		}
		state.Report(s.ID(), float64(i)/float64(len(exports))*100, e.name)
		if err := e.write(); err != nil {
			return apperrors.NewExportError("write "+e.name, err)
		}
		state.ExportsWritten = append(state.ExportsWritten, e.name)
	}

	state.Report(s.ID(), 100, fmt.Sprintf("%d exports written", len(state.ExportsWritten)))
	return nil
}

// PersistStage saves the run as a snapshot.
type PersistStage struct {
	snapshots *store.Store
	keep      int
}

// NewPersistStage builds the persist stage. keep bounds the snapshot
// history; older snapshots are pruned after each save.
func NewPersistStage(snapshots *store.Store, keep int) *PersistStage {
	if keep < 1 {
		keep = 30
	}
	return &PersistStage{snapshots: snapshots, keep: keep}
}

func (s *PersistStage) ID() string   { return StagePersist }
func (s *PersistStage) Name() string { return "Persist snapshot" }

func (s *PersistStage) Execute(ctx context.Context, state *State) error {
	state.Report(s.ID(), 0, "saving snapshot")

	id, err := s.snapshots.SaveSnapshot(ctx, domain.Snapshot{
		CreatedAt: state.KPIs.GeneratedAt,
		Records:   state.Unified,
		KPIs:      state.KPIs,
		Quality:   state.Quality,
	})
	if err != nil {
		return err
	}
	state.SnapshotID = id

	if _, err := s.snapshots.Prune(ctx, s.keep); err != nil {
		slog.Warn("snapshot prune failed", slog.String("error", err.Error()))
	}

	state.Report(s.ID(), 100, fmt.Sprintf("snapshot %d saved", id))
	return nil
}
