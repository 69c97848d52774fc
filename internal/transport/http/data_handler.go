package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "hsecli/internal/errors"
	"hsecli/internal/services"
	"hsecli/pkg/contracts/domain"
)

// DataHandler serves the unified data read endpoints.
type DataHandler struct {
	service DataService
	logger  *slog.Logger
}

func NewDataHandler(service DataService, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		service: service,
		logger:  logger.With(slog.String("component", "data_handler")),
	}
}

// Routes mounts the data endpoints.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/kpis", h.GetKPIs)
	r.Get("/quality", h.GetQuality)
	r.Get("/insights", h.GetInsights)
	r.Get("/categories", h.GetCategories)
	r.Get("/exports", h.GetExports)

	r.Route("/categories/{category}", func(r chi.Router) {
		r.Use(h.CategoryCtx)
		r.Get("/records", h.GetCategoryRecords)
	})

	return r
}

// CategoryCtx validates the category URL parameter.
func (h *DataHandler) CategoryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := domain.Category(chi.URLParam(r, "category"))
		known := false
		for _, cat := range domain.Categories() {
			if cat == category {
				known = true
				break
			}
		}
		if !known {
			writeAPIError(w, r, apperrors.ErrCategoryNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetKPIs handles GET /api/data/kpis.
func (h *DataHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.service.KPIs(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, kpis)
}

// GetQuality handles GET /api/data/quality.
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	quality, err := h.service.Quality(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, quality)
}

// GetInsights handles GET /api/data/insights.
func (h *DataHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, insights)
}

// GetCategories handles GET /api/data/categories.
func (h *DataHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, categories)
}

// GetExports handles GET /api/data/exports.
func (h *DataHandler) GetExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.service.Exports(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, exports)
}

// GetCategoryRecords handles GET /api/data/categories/{category}/records.
// Supported query parameters: status, department, limit, offset.
func (h *DataHandler) GetCategoryRecords(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(chi.URLParam(r, "category"))

	filter := services.RecordFilter{
		Status:     r.URL.Query().Get("status"),
		Department: r.URL.Query().Get("department"),
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeAPIError(w, r, apperrors.ErrValidation("limit", "must be an integer"))
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeAPIError(w, r, apperrors.ErrValidation("offset", "must be an integer"))
		return
	}

	page, err := h.service.CategoryRecords(r.Context(), category, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, page)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
