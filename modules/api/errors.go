package api

import (
	"errors"

	domain "github.com/example/tidytasks/domain/tasklist"
	"github.com/example/tidytasks/internal/validator"
	"github.com/example/tidytasks/modules/auth"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps service errors to HTTP responses. Unknown errors are
// logged and answered with a generic 500.
func (h *Handlers) respondError(c *fiber.Ctx, err error) error {
	var verr *validator.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, domain.ErrListNotFound):
		return notFound(c, "Task list not found")
	case errors.Is(err, domain.ErrTaskNotFound):
		return notFound(c, "Task not found")
	case errors.Is(err, domain.ErrAssigneeNotFound):
		return notFound(c, "Assignee not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username or password",
		})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
	case errors.Is(err, auth.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Username or email already registered",
		})
	case errors.Is(err, domain.ErrIntegrity):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "integrity_error",
			Message: "Request conflicts with existing data",
		})
	case errors.Is(err, domain.ErrListCreation):
		h.log.Error("task list creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create task list",
		})
	default:
		h.log.Error("internal error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// customErrorHandler handles errors that escape the handlers, such as
// unmatched routes.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
