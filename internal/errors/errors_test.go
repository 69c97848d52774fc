package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("file truncated")
	err := NewParsingError("cannot parse workbook", cause)

	assert.Equal(t, "[PARSING] cannot parse workbook: file truncated", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppValidationError("category must not be empty")
	assert.Equal(t, "[VALIDATION] category must not be empty", err.Error())
	assert.Nil(t, stderrors.Unwrap(err))
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewStorageError("insert snapshot", nil).
		WithContext("snapshot_id", int64(7)).
		WithContext("table", "snapshots")

	assert.Equal(t, int64(7), err.Context["snapshot_id"])
	assert.Equal(t, "snapshots", err.Context["table"])
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("snapshot")
	assert.Equal(t, ErrTypeNotFound, err.Type)
	assert.Contains(t, err.Error(), "snapshot not found")
}

func TestAPIErrorConstructors(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, "bad input", err.Error())

	detailed := ErrValidation("page", "must be a positive integer")
	assert.Equal(t, http.StatusBadRequest, detailed.StatusCode)
	ve, ok := detailed.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "page", ve.Field)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrCategoryNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "CATEGORY_NOT_FOUND")
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
