package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hsecli/internal/errors"
	"hsecli/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshotWithTotals(open, closed int) domain.Snapshot {
	return domain.Snapshot{
		CreatedAt: time.Now().UTC(),
		Records: map[domain.Category][]domain.SafetyRecord{
			domain.CategoryInspections: {
				{RecordID: "1", Source: "a.xlsx", Status: domain.StatusOpen},
			},
		},
		KPIs: domain.KPIReport{
			GeneratedAt: time.Now().UTC(),
			Categories: map[domain.Category]domain.CategoryKPI{
				domain.CategoryInspections: {
					Category:     domain.CategoryInspections,
					TotalRecords: open + closed,
					OpenItems:    open,
					ClosedItems:  closed,
				},
			},
		},
		Quality: domain.QualityReport{
			Categories: map[domain.Category]domain.CategoryQuality{
				domain.CategoryInspections: {Category: domain.CategoryInspections, TotalRows: open + closed},
			},
		},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, snapshotWithTotals(3, 7))
	require.NoError(t, err)
	assert.Positive(t, id)

	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())

	kpi := snap.KPIs.Categories[domain.CategoryInspections]
	assert.Equal(t, 10, kpi.TotalRecords)
	assert.Equal(t, 1, snap.Quality.Categories[domain.CategoryInspections].TotalRows)

	records := snap.Records[domain.CategoryInspections]
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].RecordID)
	assert.Equal(t, domain.StatusOpen, records[0].Status)
}

func TestLatestSnapshotEmptyStore(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LatestSnapshot(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
}

func TestLatestSnapshotReturnsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSnapshot(ctx, snapshotWithTotals(1, 1))
	require.NoError(t, err)
	second, err := s.SaveSnapshot(ctx, snapshotWithTotals(2, 2))
	require.NoError(t, err)

	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, snap.ID)
}

func TestKPIHistoryChronological(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for open := 1; open <= 3; open++ {
		_, err := s.SaveSnapshot(ctx, snapshotWithTotals(open, 0))
		require.NoError(t, err)
	}

	history, err := s.KPIHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Oldest first within the window.
	assert.Equal(t, 2, history[0].Categories[domain.CategoryInspections].OpenItems)
	assert.Equal(t, 3, history[1].Categories[domain.CategoryInspections].OpenItems)
}

func TestPruneKeepsNewest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.SaveSnapshot(ctx, snapshotWithTotals(i, 0))
		require.NoError(t, err)
	}

	deleted, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	history, err := s.KPIHistory(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// Records of pruned snapshots cascade away; the latest stays loadable.
	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Records[domain.CategoryInspections], 1)
}
