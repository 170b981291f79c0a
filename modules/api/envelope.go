package api

import (
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/gofiber/fiber/v2"
)

const (
	msgOperationSuccess = "Operation completed successfully"
	msgDataRetrieved    = "Data retrieved successfully"
	msgTaskCreated      = "Task created successfully"
	msgTaskRetrieved    = "Task retrieved successfully"
	msgTaskUpdated      = "Task updated successfully"
	msgTaskDeactivated  = "Task deactivated successfully"
	msgInvalidTaskData  = "Invalid task data provided"
	msgInvalidRequest   = "Invalid request"
	msgInvalidUUID      = "Validation failed (uuid is expected)"
	msgTaskExists       = "Task already exists"
	msgServerError      = "An error occurred while processing your request"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp string       `json:"timestamp"`
	Path      string       `json:"path,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	StatusCode int          `json:"statusCode"`
	Error      string       `json:"error"`
	Details    []FieldError `json:"details,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

// wrap builds the success envelope for payload. A payload that is already
// envelope-shaped is returned unchanged. An empty message picks a default
// based on the payload shape.
func wrap(c *fiber.Ctx, message string, payload any) any {
	switch p := payload.(type) {
	case Envelope, *Envelope:
		return payload
	case map[string]any:
		if _, ok := p["success"]; ok {
			return payload
		}
	case fiber.Map:
		if _, ok := p["success"]; ok {
			return payload
		}
	}

	if message == "" {
		message = msgOperationSuccess
		switch payload.(type) {
		case domain.Page, *domain.Page:
			message = msgDataRetrieved
		}
	}

	return Envelope{
		Success:   true,
		Message:   message,
		Data:      payload,
		Timestamp: now(),
		Path:      c.OriginalURL(),
	}
}

// respond writes payload wrapped in a success envelope.
func respond(c *fiber.Ctx, status int, message string, payload any) error {
	return c.Status(status).JSON(wrap(c, message, payload))
}

// failure builds the error envelope.
func failure(c *fiber.Ctx, status int, message string, details []FieldError) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error: &ErrorDetail{
			StatusCode: status,
			Error:      reasonPhrase(status),
			Details:    details,
		},
		Timestamp: now(),
		Path:      c.OriginalURL(),
	}
}
