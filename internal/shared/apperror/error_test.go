package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WithDetailsKeepsIdentity(t *testing.T) {
	sentinel := New(CodeConflict, "insufficient balance", http.StatusBadRequest)

	withDetails := sentinel.WithDetails(map[string]int{"requested_days": 5})
	wrapped := fmt.Errorf("create: %w", withDetails)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Nil(t, sentinel.Details)
	assert.Equal(t, map[string]int{"requested_days": 5}, withDetails.Details)
}

func TestToHTTP(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		got := ToHTTP(ErrNotFound.WithDetails("x"))

		assert.Equal(t, http.StatusNotFound, got.Status)
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, "x", got.Details)
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		got := ToHTTP(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, CodeInternalError, got.Code)
		assert.Equal(t, "Internal server error", got.Message)
	})
}

func TestMapValidationError_NonValidatorError(t *testing.T) {
	got := MapValidationError(errors.New("EOF"))

	assert.Equal(t, CodeInvalidInput, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
}
