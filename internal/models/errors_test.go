package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestAppError_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *AppError
		want int
	}{
		{NewInvalidInputError("bad"), http.StatusBadRequest},
		{NewNotFoundError("missing"), http.StatusNotFound},
		{NewConflictError("taken"), http.StatusConflict},
		{NewDependencyFailure("smtp down", errors.New("dial tcp")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Status(), string(tt.err.Kind))
	}
}

func TestAppError_UnwrapAndIsKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("purchase: %w", NewDependencyFailure("Failed to send email", cause))

	assert.True(t, IsKind(err, KindDependencyFailure))
	assert.False(t, IsKind(err, KindConflict))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "purchase: Failed to send email: connection reset", err.Error())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	status, detail := Describe(NewDependencyFailure("Failed to send email", errors.New("secret smtp detail")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to send email", detail)

	status, detail = Describe(fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method Not Allowed", detail)

	status, detail = Describe(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", detail)
}

func TestNewErrorResponse(t *testing.T) {
	t.Parallel()

	resp := NewErrorResponse(http.StatusConflict, "Unicorn already purchased")
	assert.Equal(t, ErrorResponse{
		Title:  "An error occurred",
		Detail: "Unicorn already purchased",
		Status: 409,
		Type:   "/errors/409",
	}, resp)
}
