package api

import (
	"errors"
	"fmt"

	domain "github.com/example/task-api/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by handlers when a request fails input validation.
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Details)
}

func invalidBody(details ...FieldError) error {
	return &ValidationError{Message: msgInvalidTaskData, Details: details}
}

func invalidRequest(details ...FieldError) error {
	return &ValidationError{Message: msgInvalidRequest, Details: details}
}

func reasonPhrase(status int) string {
	if msg := utils.StatusMessage(status); msg != "" {
		return msg
	}
	return "Unknown"
}

// newErrorHandler returns the Fiber error handler that translates every
// handler error into an error envelope.
func newErrorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message, details := classify(err)

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				"method", c.Method(),
				"url", c.OriginalURL(),
				"error", err)
		}

		return c.Status(status).JSON(failure(c, status, message, details))
	}
}

func classify(err error) (int, string, []FieldError) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Message, validationErr.Details
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return fiber.StatusNotFound, fmt.Sprintf("Task with ID %s not found", notFound.ID), nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message, nil
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Task not found", nil
	case errors.Is(err, domain.ErrInvalid):
		return fiber.StatusBadRequest, msgInvalidTaskData, nil
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, msgTaskExists, nil
	}

	return fiber.StatusInternalServerError, msgServerError, nil
}
