// Package http contains the chi HTTP handlers of the dashboard API.
package http

import (
	"context"

	"hsecli/internal/services"
	"hsecli/pkg/contracts/domain"
)

// DataService is the read surface consumed by the data handler.
type DataService interface {
	KPIs(ctx context.Context) (domain.KPIReport, error)
	Quality(ctx context.Context) (domain.QualityReport, error)
	Categories(ctx context.Context) ([]services.CategorySummary, error)
	CategoryRecords(ctx context.Context, category domain.Category, filter services.RecordFilter) (services.RecordPage, error)
	Insights(ctx context.Context) (services.InsightsReport, error)
	Exports(ctx context.Context) ([]services.ExportFile, error)
}

// OperationsService is the refresh control surface consumed by the
// operations handler.
type OperationsService interface {
	StartRefresh(ctx context.Context) (domain.Operation, error)
	Get(ctx context.Context, id string) (domain.Operation, error)
	List(ctx context.Context) []domain.Operation
	Cancel(ctx context.Context, id string) error
}
