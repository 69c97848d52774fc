package operations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hsecli/internal/config"
	"hsecli/internal/files"
	"hsecli/internal/store"
	"hsecli/pkg/contracts/domain"
)

type pipelineEnv struct {
	paths     *config.Paths
	snapshots *store.Store
	stages    []Stage
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		BaseDir:    dir,
		SourcesDir: filepath.Join(dir, "sources"),
		ExportsDir: filepath.Join(dir, "exports"),
		LogsDir:    filepath.Join(dir, "logs"),
		DBFile:     filepath.Join(dir, "test.db"),
	}
	require.NoError(t, paths.EnsureDirectories())

	snapshots, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { snapshots.Close() })

	processing := config.ProcessingConfig{ParseWorkers: 2, HighRiskLevel: 0.7, TrendWindow: 3}

	return &pipelineEnv{
		paths:     paths,
		snapshots: snapshots,
		stages: []Stage{
			NewDiscoverStage(files.NewDiscovery(paths.SourcesDir)),
			NewParseStage(processing),
			NewUnifyStage(),
			NewAggregateStage(processing, snapshots),
			NewExportStage(paths),
			NewPersistStage(snapshots, 10),
		},
	}
}

func (e *pipelineEnv) writeCSV(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.paths.SourcesDir, name), []byte(content), 0644))
}

func (e *pipelineEnv) writeIncidentWorkbook(t *testing.T, name string) {
	t.Helper()
	f := excelize.NewFile()
	rows := [][]string{
		{"رقم الحادث", "تاريخ الحادث", "الحالة", "الإدارة", "درجة المخاطرة"},
		{"INC-1", "2024-02-01", "مغلق", "التشغيل", "0.9"},
		{"INC-2", "2024-02-03", "مفتوح", "الصيانة", "0.4"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(e.paths.SourcesDir, name)))
	require.NoError(t, f.Close())
}

func TestPipelineEndToEnd(t *testing.T) {
	env := newPipelineEnv(t)
	env.writeCSV(t, "تفتيش المواقع.csv",
		"\xEF\xBB\xBFرقم,تاريخ,الحالة,الإدارة\n1,2024-01-05,مفتوح,التشغيل\n2,2024-01-06,مغلق,الصيانة\n")
	env.writeIncidentWorkbook(t, "حوادث 2024.xlsx")
	env.writeCSV(t, "broken.csv", "\xFF\xFE\x00 not a table")

	m := NewManager(env.stages)
	state, op, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OperationCompleted, op.Status)

	require.NotNil(t, state)
	assert.Len(t, state.Unified[domain.CategoryInspections], 2)
	assert.Len(t, state.Unified[domain.CategoryIncidents], 2)

	// broken.csv decodes via the 1256 fallback but yields no header row.
	require.Len(t, state.SourceErrors, 1)
	assert.Equal(t, "broken.csv", state.SourceErrors[0].Source)

	incidents := state.KPIs.Categories[domain.CategoryIncidents]
	assert.Equal(t, 1, incidents.HighRiskItems)
	assert.Equal(t, 1, incidents.ClosedItems)

	for _, name := range []string{
		"inspections.csv", "incidents.csv",
		ExportWorkbook, ExportKPIsJSON, ExportKPIsCSV,
		ExportQuality, ExportInsights, ExportSummary,
	} {
		assert.FileExists(t, env.paths.ExportPath(name), name)
	}

	assert.Positive(t, state.SnapshotID)
	snap, err := env.snapshots.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.SnapshotID, snap.ID)
}

func TestPipelineDuplicateRowsSurviveDedupInQuality(t *testing.T) {
	env := newPipelineEnv(t)
	// Row 1 appears twice in the source file.
	env.writeCSV(t, "تفتيش.csv",
		"\xEF\xBB\xBFرقم,تاريخ,الحالة\n1,2024-01-05,مفتوح\n1,2024-01-05,مفتوح\n2,2024-01-06,مغلق\n")

	m := NewManager(env.stages)
	state, _, err := m.Run(context.Background())
	require.NoError(t, err)

	// The unified table is deduplicated...
	assert.Len(t, state.Unified[domain.CategoryInspections], 2)
	assert.Equal(t, 1, state.DuplicatesDropped)

	// ...but the quality report still counts the source duplication and
	// penalizes the score for it.
	q := state.Quality.Categories[domain.CategoryInspections]
	assert.Equal(t, 1, q.DuplicateRows)
	assert.Less(t, q.QualityScore, 100.0)
}

func TestPipelineTrendsAcrossRuns(t *testing.T) {
	env := newPipelineEnv(t)
	env.writeCSV(t, "تفتيش.csv",
		"\xEF\xBB\xBFرقم,تاريخ,الحالة\n1,2024-01-05,مفتوح\n")

	m := NewManager(env.stages)
	_, _, err := m.Run(context.Background())
	require.NoError(t, err)

	state, _, err := m.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, state.Trends)
	metrics := make(map[string]domain.TrendDirection)
	for _, trend := range state.Trends {
		metrics[trend.Metric] = trend.Direction
	}
	assert.Equal(t, domain.TrendStable, metrics["inspections.open_items"])
}

func TestPipelineFailsWithoutSources(t *testing.T) {
	env := newPipelineEnv(t)

	m := NewManager(env.stages)
	_, op, err := m.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.OperationFailed, op.Status)
	assert.Contains(t, op.Error, "no source files")
}
