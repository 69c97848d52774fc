package services

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"hsecli/internal/config"
	apperrors "hsecli/internal/errors"
	"hsecli/internal/operations"
	"hsecli/pkg/contracts/domain"
)

func apperrNotFound(resource string) error {
	return apperrors.NewNotFoundError(resource)
}

// OperationsService exposes refresh control to the transport layer and
// owns the scheduled-refresh cron when enabled.
type OperationsService struct {
	manager *operations.Manager
	cfg     config.RefreshConfig
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewOperationsService creates the operations service.
func NewOperationsService(manager *operations.Manager, cfg config.RefreshConfig, logger *slog.Logger) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsService{
		manager: manager,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "operations_service")),
	}
}

// StartRefresh launches a refresh operation.
func (s *OperationsService) StartRefresh(ctx context.Context) (domain.Operation, error) {
	return s.manager.Start(ctx)
}

// Get returns one operation by id.
func (s *OperationsService) Get(ctx context.Context, id string) (domain.Operation, error) {
	op, ok := s.manager.Get(id)
	if !ok {
		return domain.Operation{}, apperrNotFound("operation")
	}
	return op, nil
}

// List returns all known operations, newest first.
func (s *OperationsService) List(ctx context.Context) []domain.Operation {
	return s.manager.List()
}

// Cancel aborts a running operation.
func (s *OperationsService) Cancel(ctx context.Context, id string) error {
	if !s.manager.Cancel(id) {
		return apperrNotFound("operation")
	}
	return nil
}

// StartScheduler begins scheduled refreshes when enabled in config.
func (s *OperationsService) StartScheduler() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduled refresh disabled")
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		op, err := s.manager.Start(context.Background())
		if err != nil {
			// An overlapping manual refresh is fine; just skip this tick.
			s.logger.Warn("scheduled refresh skipped", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("scheduled refresh started", slog.String("operation_id", op.ID))
	})
	if err != nil {
		return apperrors.NewConfigError("invalid refresh schedule "+s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduled refresh enabled", slog.String("schedule", s.cfg.Schedule))
	return nil
}

// StopScheduler stops the cron and waits for a running job callback.
func (s *OperationsService) StopScheduler() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
