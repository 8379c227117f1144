package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/atelier-erp/settlement-engine/internal/domain"
	"github.com/atelier-erp/settlement-engine/internal/observability"
)

// ErrorHandler maps domain sentinels that escaped the handlers to HTTP
// statuses and logs everything else as a server error.
func ErrorHandler(base *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusForError(err)
		logger := observability.WithContextLogger(base, c.UserContext())

		if code >= fiber.StatusInternalServerError {
			logger.Error("request error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		} else {
			logger.Warn("request rejected",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func statusForError(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrRetryExhausted):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
