package api

import (
	"encoding/json"
	"errors"
	"time"

	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/modules/task"
)

var errInvalidDate = errors.New("dueDate must be a valid ISO 8601 date string")

// Date accepts an RFC 3339 timestamp or a YYYY-MM-DD calendar date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errInvalidDate
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return errInvalidDate
}

// CreateTaskBody is the request body for POST /api/tasks.
type CreateTaskBody struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	DueDate     *Date   `json:"dueDate"`
	Status      *string `json:"status" validate:"omitnil,task_status"`
	Priority    *string `json:"priority" validate:"omitnil,task_priority"`
}

var createTaskFields = fieldSet("name", "description", "dueDate", "status", "priority")

func (b *CreateTaskBody) toRequest() *task.CreateTaskRequest {
	req := &task.CreateTaskRequest{
		Name:        b.Name,
		Description: b.Description,
	}
	if b.DueDate != nil {
		due := b.DueDate.Time
		req.DueDate = &due
	}
	if b.Status != nil {
		req.Status = domain.Status(*b.Status)
	}
	if b.Priority != nil {
		req.Priority = domain.Priority(*b.Priority)
	}
	return req
}

// UpdateTaskBody is the request body for PATCH /api/tasks/:id.
// Absent fields are left unchanged; description and dueDate may be null to clear them.
type UpdateTaskBody struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description"`
	DueDate     *Date   `json:"dueDate"`
	Status      *string `json:"status" validate:"omitnil,task_status"`
	Priority    *string `json:"priority" validate:"omitnil,task_priority"`
}

var updateTaskFields = fieldSet("name", "description", "dueDate", "status", "priority")

// clearableFields may be set to null in an update.
var clearableFields = fieldSet("description", "dueDate")

func (b *UpdateTaskBody) toPatch(nulls map[string]struct{}) task.TaskPatch {
	patch := task.TaskPatch{
		Name:        b.Name,
		Description: b.Description,
	}
	if _, ok := nulls["description"]; ok {
		patch.ClearDescription = true
	}
	if _, ok := nulls["dueDate"]; ok {
		patch.ClearDueDate = true
	}
	if b.DueDate != nil {
		due := b.DueDate.Time
		patch.DueDate = &due
	}
	if b.Status != nil {
		status := domain.Status(*b.Status)
		patch.Status = &status
	}
	if b.Priority != nil {
		priority := domain.Priority(*b.Priority)
		patch.Priority = &priority
	}
	return patch
}

// ListTasksQuery holds the parsed query string of GET /api/tasks.
type ListTasksQuery struct {
	Page     int     `json:"page" validate:"min=1"`
	Limit    int     `json:"limit" validate:"min=1,max=50"`
	Status   *string `json:"status" validate:"omitnil,task_status"`
	Priority *string `json:"priority" validate:"omitnil,task_priority"`
	IsActive *bool   `json:"isActive"`
	Search   string  `json:"search"`
}

func (q *ListTasksQuery) toRequest() *task.ListTasksRequest {
	req := &task.ListTasksRequest{
		Pagination: domain.Pagination{Page: q.Page, Limit: q.Limit},
		Filter: domain.Filter{
			IsActive: q.IsActive,
			Search:   q.Search,
		},
	}
	if q.Status != nil {
		status := domain.Status(*q.Status)
		req.Filter.Status = &status
	}
	if q.Priority != nil {
		priority := domain.Priority(*q.Priority)
		req.Filter.Priority = &priority
	}
	return req
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func fieldSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
