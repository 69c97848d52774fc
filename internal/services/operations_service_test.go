package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/internal/config"
	apperrors "hsecli/internal/errors"
	"hsecli/internal/operations"
	"hsecli/pkg/contracts/domain"
)

type noopStage struct{ block chan struct{} }

func (s *noopStage) ID() string   { return "noop" }
func (s *noopStage) Name() string { return "noop" }

func (s *noopStage) Execute(ctx context.Context, state *operations.State) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func newOperationsService(stage operations.Stage, cfg config.RefreshConfig) *OperationsService {
	manager := operations.NewManager([]operations.Stage{stage})
	return NewOperationsService(manager, cfg, nil)
}

func waitForTerminal(t *testing.T, svc *OperationsService, id string) domain.Operation {
	t.Helper()
	var op domain.Operation
	require.Eventually(t, func() bool {
		var err error
		op, err = svc.Get(context.Background(), id)
		require.NoError(t, err)
		switch op.Status {
		case domain.OperationCompleted, domain.OperationFailed, domain.OperationCancelled:
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return op
}

func TestStartRefreshAndGet(t *testing.T) {
	svc := newOperationsService(&noopStage{}, config.RefreshConfig{})

	op, err := svc.StartRefresh(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, op.ID)

	final := waitForTerminal(t, svc, op.ID)
	assert.Equal(t, domain.OperationCompleted, final.Status)

	ops := svc.List(context.Background())
	require.Len(t, ops, 1)
	assert.Equal(t, op.ID, ops[0].ID)
}

func TestGetUnknownOperation(t *testing.T) {
	svc := newOperationsService(&noopStage{}, config.RefreshConfig{})

	_, err := svc.Get(context.Background(), "missing")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
}

func TestCancelRunningOperation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	svc := newOperationsService(&noopStage{block: block}, config.RefreshConfig{})

	op, err := svc.StartRefresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), op.ID))
	final := waitForTerminal(t, svc, op.ID)
	assert.Equal(t, domain.OperationCancelled, final.Status)

	assert.Error(t, svc.Cancel(context.Background(), "missing"))
}

func TestSchedulerDisabled(t *testing.T) {
	svc := newOperationsService(&noopStage{}, config.RefreshConfig{Enabled: false})

	require.NoError(t, svc.StartScheduler())
	assert.Nil(t, svc.cron)
	svc.StopScheduler()
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	svc := newOperationsService(&noopStage{}, config.RefreshConfig{Enabled: true, Schedule: "not a cron"})

	err := svc.StartScheduler()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}

func TestSchedulerRunsRefresh(t *testing.T) {
	svc := newOperationsService(&noopStage{}, config.RefreshConfig{Enabled: true, Schedule: "@every 100ms"})

	require.NoError(t, svc.StartScheduler())
	defer svc.StopScheduler()

	require.Eventually(t, func() bool {
		return len(svc.List(context.Background())) > 0
	}, 5*time.Second, 20*time.Millisecond)
}
