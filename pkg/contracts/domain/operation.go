package domain

import "time"

// OperationStatus tracks the lifecycle of a refresh operation.
type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationRunning   OperationStatus = "running"
	OperationCompleted OperationStatus = "completed"
	OperationFailed    OperationStatus = "failed"
	OperationCancelled OperationStatus = "cancelled"
)

// OperationProgress is one progress event emitted while a refresh runs.
// Events are broadcast to websocket subscribers and kept on the operation.
type OperationProgress struct {
	OperationID string    `json:"operation_id"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message,omitempty"`
	Percent     float64   `json:"percent"`
	Timestamp   time.Time `json:"timestamp"`
}

// Operation describes one refresh run end to end.
type Operation struct {
	ID          string              `json:"id"`
	Status      OperationStatus     `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at,omitempty"`
	Error       string              `json:"error,omitempty"`
	Progress    []OperationProgress `json:"progress,omitempty"`
}

// Snapshot is a persisted result of one completed refresh.
type Snapshot struct {
	ID        int64                       `json:"id"`
	CreatedAt time.Time                   `json:"created_at"`
	Records   map[Category][]SafetyRecord `json:"records,omitempty"`
	KPIs      KPIReport                   `json:"kpis"`
	Quality   QualityReport               `json:"quality"`
}
