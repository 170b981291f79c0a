package task

import (
	"context"
	"time"

	domain "github.com/example/task-api/domain/task"
)

// CreateTaskRequest is the request for creating a task.
// Empty Status or Priority select the domain defaults.
type CreateTaskRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Status      domain.Status   `json:"status,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Pagination domain.Pagination `json:"pagination"`
	Filter     domain.Filter     `json:"filter"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// TaskPatch holds the fields of a partial update. Nil fields are left untouched.
// ClearDescription and ClearDueDate set the corresponding field to null.
type TaskPatch struct {
	Name             *string          `json:"name,omitempty"`
	Description      *string          `json:"description,omitempty"`
	ClearDescription bool             `json:"clearDescription,omitempty"`
	DueDate          *time.Time       `json:"dueDate,omitempty"`
	ClearDueDate     bool             `json:"clearDueDate,omitempty"`
	Status           *domain.Status   `json:"status,omitempty"`
	Priority         *domain.Priority `json:"priority,omitempty"`
}

// UpdateTaskRequest is the request for updating a task.
type UpdateTaskRequest struct {
	TaskID string    `json:"task_id"`
	Patch  TaskPatch `json:"patch"`
}

// DeactivateTaskRequest is the request for soft-deleting a task.
type DeactivateTaskRequest struct {
	TaskID string `json:"task_id"`
}

// DeleteTaskRequest is the request for permanently deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// TaskResult is the reply of the services that return a single task.
// Error holds the failure message and Task is nil when the operation failed.
type TaskResult struct {
	Task  *domain.Task `json:"task,omitempty"`
	Error string       `json:"error,omitempty"`
}

// PageResult is the reply of the list-tasks service.
type PageResult struct {
	Page  *domain.Page `json:"page,omitempty"`
	Error string       `json:"error,omitempty"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// TaskPort defines the interface for task operations (hexagonal port).
// Driving adapters such as the HTTP API depend on this instead of the module.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*domain.Page, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error)
	DeactivateTask(ctx context.Context, taskID string) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// TaskCache is the subset of cache operations the service needs.
type TaskCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}
