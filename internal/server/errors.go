package server

import (
	"errors"
	"log/slog"

	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler returns the Fiber error handler. Every error returned by a
// handler or middleware, including recovered panics and unmatched routes, ends
// up here.
//
// With disabled set, errors skip the uniform JSON body and fall through to
// Fiber's default handler, which writes the message as plain text. Typed errors
// keep their status code.
func NewErrorHandler(disabled bool) fiber.ErrorHandler {
	if disabled {
		return func(c *fiber.Ctx, err error) error {
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				err = fiber.NewError(appErr.Status(), appErr.Message)
			}
			return fiber.DefaultErrorHandler(c, err)
		}
	}

	return func(c *fiber.Ctx, err error) error {
		status, _ := models.Describe(err)
		if status >= fiber.StatusInternalServerError {
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}
		return models.RespondWithError(c, err)
	}
}
