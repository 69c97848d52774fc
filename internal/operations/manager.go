package operations

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hsecli/internal/infrastructure"
	"hsecli/pkg/contracts/domain"
)

var tracer = otel.Tracer(infrastructure.MeterName)

// Publisher receives progress events for broadcast (websocket hub).
type Publisher interface {
	Publish(event domain.OperationProgress)
}

// Manager runs refresh operations and tracks their lifecycle. Only one
// operation runs at a time; starting while one is running is rejected.
type Manager struct {
	stages    []Stage
	publisher Publisher
	metrics   *infrastructure.PipelineMetrics

	mu         sync.RWMutex
	operations map[string]*domain.Operation
	cancels    map[string]context.CancelFunc
	running    bool

	// latest holds the State of the last completed run for synchronous
	// callers (CLI) and the services layer.
	latest *State
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher wires a progress broadcaster.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithMetrics wires the pipeline instruments.
func WithMetrics(metrics *infrastructure.PipelineMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a manager running the given stages in order.
func NewManager(stages []Stage, opts ...Option) *Manager {
	m := &Manager{
		stages:     stages,
		operations: make(map[string]*domain.Operation),
		cancels:    make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ErrAlreadyRunning is returned by Start while a refresh is in flight.
var ErrAlreadyRunning = &alreadyRunningError{}

type alreadyRunningError struct{}

func (*alreadyRunningError) Error() string { return "a refresh operation is already running" }

// Start launches a refresh asynchronously and returns the pending
// operation immediately.
func (m *Manager) Start(ctx context.Context) (domain.Operation, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return domain.Operation{}, ErrAlreadyRunning
	}

	op := &domain.Operation{
		ID:        uuid.New().String(),
		Status:    domain.OperationPending,
		StartedAt: time.Now().UTC(),
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.operations[op.ID] = op
	m.cancels[op.ID] = cancel
	m.running = true
	snapshot := *op
	m.mu.Unlock()

	go m.run(runCtx, op.ID)

	return snapshot, nil
}

// Run executes a refresh synchronously and returns the final state.
func (m *Manager) Run(ctx context.Context) (*State, domain.Operation, error) {
	op, err := m.Start(ctx)
	if err != nil {
		return nil, domain.Operation{}, err
	}

	// Wait for the background run started by Start.
	for {
		current, _ := m.Get(op.ID)
		if current.Status == domain.OperationCompleted || current.Status == domain.OperationFailed ||
			current.Status == domain.OperationCancelled {
			m.mu.RLock()
			state := m.latest
			m.mu.RUnlock()
			if current.Status != domain.OperationCompleted {
				return state, current, &operationError{message: current.Error}
			}
			return state, current, nil
		}
		select {
		case <-ctx.Done():
			m.Cancel(op.ID)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

type operationError struct{ message string }

func (e *operationError) Error() string { return e.message }

func (m *Manager) run(ctx context.Context, opID string) {
	logger := slog.With(slog.String("operation_id", opID))
	start := time.Now()

	state := &State{progress: func(stage string, percent float64, message string) {
		m.recordProgress(opID, stage, percent, message)
	}}

	m.setStatus(opID, domain.OperationRunning, "")
	logger.Info("refresh operation started", slog.Int("stages", len(m.stages)))

	for _, stage := range m.stages {
		if err := ctx.Err(); err != nil {
			logger.Warn("refresh operation cancelled", slog.String("stage", stage.ID()))
			m.finish(opID, domain.OperationCancelled, context.Canceled.Error())
			return
		}

		stageCtx, span := tracer.Start(ctx, "refresh."+stage.ID(),
			trace.WithAttributes(attribute.String("operation.id", opID)))
		stageStart := time.Now()
		err := stage.Execute(stageCtx, state)
		if m.metrics != nil {
			m.metrics.StageDuration.Record(stageCtx, time.Since(stageStart).Seconds())
		}
		if err != nil {
			infrastructure.RecordError(stageCtx, err)
			span.End()
			if ctx.Err() != nil {
				m.finish(opID, domain.OperationCancelled, context.Canceled.Error())
				return
			}
			logger.Error("refresh stage failed",
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			m.finish(opID, domain.OperationFailed, err.Error())
			return
		}
		span.End()
	}

	m.recordMetrics(ctx, state)

	m.mu.Lock()
	m.latest = state
	m.mu.Unlock()

	m.finish(opID, domain.OperationCompleted, "")
	logger.Info("refresh operation completed",
		slog.Int("records", state.TotalRecords()),
		slog.Int("source_errors", len(state.SourceErrors)),
		slog.Duration("duration", time.Since(start)))

	if m.metrics != nil {
		m.metrics.OperationDuration.Record(ctx, time.Since(start).Seconds())
	}
}

func (m *Manager) recordMetrics(ctx context.Context, state *State) {
	if m.metrics == nil {
		return
	}
	m.metrics.FilesParsed.Add(ctx, int64(len(state.Files)-len(state.SourceErrors)))
	m.metrics.SourcesFailed.Add(ctx, int64(len(state.SourceErrors)))
	m.metrics.RecordsUnified.Add(ctx, int64(state.TotalRecords()))
	m.metrics.ExportsWritten.Add(ctx, int64(len(state.ExportsWritten)))
}

// Get returns a copy of the operation with the given id.
func (m *Manager) Get(id string) (domain.Operation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.operations[id]
	if !ok {
		return domain.Operation{}, false
	}
	return *op, true
}

// List returns all known operations, newest first.
func (m *Manager) List() []domain.Operation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ops := make([]domain.Operation, 0, len(m.operations))
	for _, op := range m.operations {
		ops = append(ops, *op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].StartedAt.After(ops[j].StartedAt)
	})
	return ops
}

// Cancel aborts a running operation. Returns false for unknown or
// already finished operations.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel, ok := m.cancels[id]
	if !ok {
		return false
	}
	cancel()
	return true
}

// LatestState returns the state of the last completed refresh, or nil.
func (m *Manager) LatestState() *State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Manager) setStatus(id string, status domain.OperationStatus, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.operations[id]
	if !ok {
		return
	}
	op.Status = status
	op.Error = errMsg
}

// finish records a terminal status and releases the run slot atomically,
// so Get never reports a finished operation while Start still rejects.
func (m *Manager) finish(id string, status domain.OperationStatus, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op, ok := m.operations[id]; ok {
		op.Status = status
		op.Error = errMsg
		op.CompletedAt = time.Now().UTC()
	}
	delete(m.cancels, id)
	m.running = false
}

func (m *Manager) recordProgress(opID, stage string, percent float64, message string) {
	event := domain.OperationProgress{
		OperationID: opID,
		Stage:       stage,
		Message:     message,
		Percent:     percent,
		Timestamp:   time.Now().UTC(),
	}

	m.mu.Lock()
	if op, ok := m.operations[opID]; ok {
		op.Progress = append(op.Progress, event)
	}
	m.mu.Unlock()

	if m.publisher != nil {
		m.publisher.Publish(event)
	}
}
