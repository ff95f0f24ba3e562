package models

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies an AppError and decides its HTTP status.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindDependencyFailure ErrorKind = "DEPENDENCY_FAILURE"
)

// ErrorResponse is the uniform body written for every failed request.
type ErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
	Type   string `json:"type"`
}

// AppError represents a custom application error
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error constructors
func NewInvalidInputError(message string) *AppError {
	return &AppError{Kind: KindInvalidInput, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewDependencyFailure(message string, err error) *AppError {
	return &AppError{Kind: KindDependencyFailure, Message: message, Err: err}
}

// IsKind reports whether err wraps an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// NewErrorResponse builds the response body for status with the given detail.
func NewErrorResponse(status int, detail string) ErrorResponse {
	return ErrorResponse{
		Title:  "An error occurred",
		Detail: detail,
		Status: status,
		Type:   fmt.Sprintf("/errors/%d", status),
	}
}

// RespondWithError writes the uniform error body. Status and detail come from the
// error itself: AppError kinds, fiber errors, or 500 for anything else.
func RespondWithError(c *fiber.Ctx, err error) error {
	status, detail := Describe(err)
	return c.Status(status).JSON(NewErrorResponse(status, detail))
}

// Describe returns the HTTP status and client-facing detail for err. Causes wrapped
// inside an AppError are never exposed.
func Describe(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status(), appErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
