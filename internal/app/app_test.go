package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsecli/internal/config"
	"hsecli/internal/files"
	"hsecli/internal/infrastructure"
	"hsecli/internal/middleware"
	"hsecli/internal/operations"
	"hsecli/internal/services"
	"hsecli/internal/store"
	ws "hsecli/internal/websocket"
)

func testApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.SourcesDir = t.TempDir()
	cfg.Paths.ExportsDir = t.TempDir()

	paths, err := config.NewPaths(t.TempDir(), cfg.Paths)
	require.NoError(t, err)

	snapshots, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { snapshots.Close() })

	logger := slog.Default()
	manager := operations.NewManager(RefreshStages(paths, cfg.Processing, snapshots))

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	t.Cleanup(limiter.Stop)

	app := &Application{
		Config:            cfg,
		Paths:             paths,
		Logger:            logger,
		OTelProviders:     &infrastructure.OTelProviders{Logger: logger},
		Snapshots:         snapshots,
		Hub:               ws.NewHub(),
		Manager:           manager,
		RateLimiter:       limiter,
		DataService:       services.NewDataService(snapshots, files.NewManager(paths.ExportsDir), cfg.Processing, logger),
		OperationsService: services.NewOperationsService(manager, cfg.Refresh, logger),
	}
	app.setupRouter()
	return app
}

func TestRefreshStagesOrder(t *testing.T) {
	paths, err := config.NewPaths(t.TempDir(), config.Default().Paths)
	require.NoError(t, err)

	stages := RefreshStages(paths, config.Default().Processing, nil)

	var ids []string
	for _, stage := range stages {
		ids = append(ids, stage.ID())
	}
	assert.Equal(t, []string{
		operations.StageDiscover,
		operations.StageParse,
		operations.StageUnify,
		operations.StageAggregate,
		operations.StageExport,
		operations.StagePersist,
	}, ids)
}

func TestRouterServesHealth(t *testing.T) {
	app := testApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestRouterServesDataEndpoints(t *testing.T) {
	app := testApplication(t)

	// No snapshot saved yet, so the API reports not found rather than 500.
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/kpis", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestRouterListsOperations(t *testing.T) {
	app := testApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/operations/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	app := testApplication(t)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
