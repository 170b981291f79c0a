package api

import (
	"strconv"

	"github.com/example/task-api/modules/task"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// createNullableFields may be null on create; null means "use the default".
var createNullableFields = fieldSet("description", "dueDate", "status", "priority")

// Handlers contains HTTP handlers for the task API.
type Handlers struct {
	tasks       task.TaskPort
	validate    *validator.Validate
	serviceName string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, serviceName string) *Handlers {
	return &Handlers{
		tasks:       tasks,
		validate:    newValidator(),
		serviceName: serviceName,
	}
}

// HealthCheck reports process liveness.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "", HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
	})
}

// CreateTask handles POST /api/tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var body CreateTaskBody
	if _, err := decodeBody(c.Body(), &body, createTaskFields, createNullableFields); err != nil {
		return err
	}
	if err := h.validate.Struct(&body); err != nil {
		return invalidBody(fieldErrors(err)...)
	}

	created, err := h.tasks.CreateTask(c.UserContext(), body.toRequest())
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, msgTaskCreated, created)
}

// ListTasks handles GET /api/tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return err
	}
	if err := h.validate.Struct(query); err != nil {
		return invalidRequest(fieldErrors(err)...)
	}

	page, err := h.tasks.ListTasks(c.UserContext(), query.toRequest())
	if err != nil {
		return err
	}

	c.Set("X-Total-Count", strconv.FormatInt(page.Meta.TotalItems, 10))
	c.Set("X-Page-Count", strconv.Itoa(page.Meta.TotalPages))

	return respond(c, fiber.StatusOK, "", page)
}

// GetTask handles GET /api/tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	found, err := h.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, msgTaskRetrieved, found)
}

// UpdateTask handles PATCH /api/tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var body UpdateTaskBody
	nulls, err := decodeBody(c.Body(), &body, updateTaskFields, clearableFields)
	if err != nil {
		return err
	}
	if err := h.validate.Struct(&body); err != nil {
		return invalidBody(fieldErrors(err)...)
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), &task.UpdateTaskRequest{
		TaskID: id,
		Patch:  body.toPatch(nulls),
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, msgTaskUpdated, updated)
}

// DeactivateTask handles PATCH /api/tasks/:id/deactivate.
func (h *Handlers) DeactivateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	deactivated, err := h.tasks.DeactivateTask(c.UserContext(), id)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, msgTaskDeactivated, deactivated)
}

// DeleteTask handles DELETE /api/tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// taskID returns the :id path parameter, rejecting anything but a canonical UUID.
func taskID(c *fiber.Ctx) (string, error) {
	id := utils.CopyString(c.Params("id"))
	if !isUUID(id) {
		return "", &ValidationError{
			Message: msgInvalidUUID,
			Details: []FieldError{{Field: "id", Message: "id must be a UUID"}},
		}
	}
	return id, nil
}
