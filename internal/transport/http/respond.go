package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apperrors "hsecli/internal/errors"
)

// dataResponse is the success envelope of the API.
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respond(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, dataResponse{Success: true, Data: data})
}

// respondError maps application errors to the API error vocabulary.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		writeAPIError(w, r, apiErr)
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrTypeNotFound:
			writeAPIError(w, r, apperrors.New(http.StatusNotFound, "NOT_FOUND", appErr.Message))
			return
		case apperrors.ErrTypeValidation:
			writeAPIError(w, r, apperrors.ErrValidation("request", appErr.Message))
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeAPIError(w, r, apperrors.ErrInternalServer)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	if err := render.Render(w, r, apperrors.NewErrorResponse(apiErr)); err != nil {
		apperrors.WriteError(w, apiErr)
	}
}
