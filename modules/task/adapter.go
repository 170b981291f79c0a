package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-api/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*domain.Task, error) {
	var resp TaskResult
	if err := callService(ctx, a.container, "create-task", req, &resp); err != nil {
		return nil, err
	}
	return taskFromResult(resp, "")
}

// ListTasks returns one page of tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*domain.Page, error) {
	var resp PageResult
	if err := callService(ctx, a.container, "list-tasks", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, mapServiceError(errors.New(resp.Error), "")
	}
	if resp.Page == nil {
		return nil, errors.New("list-tasks service returned an empty reply")
	}
	if resp.Page.Data == nil {
		resp.Page.Data = []domain.Task{}
	}
	return resp.Page, nil
}

// GetTask retrieves a task by ID via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	req := GetTaskRequest{TaskID: taskID}
	var resp TaskResult
	if err := callService(ctx, a.container, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return taskFromResult(resp, taskID)
}

// UpdateTask updates a task via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*domain.Task, error) {
	var resp TaskResult
	if err := callService(ctx, a.container, "update-task", req, &resp); err != nil {
		return nil, err
	}
	return taskFromResult(resp, req.TaskID)
}

// DeactivateTask soft-deletes a task via the deactivate-task service.
func (a *taskAdapter) DeactivateTask(ctx context.Context, taskID string) (*domain.Task, error) {
	req := DeactivateTaskRequest{TaskID: taskID}
	var resp TaskResult
	if err := callService(ctx, a.container, "deactivate-task", &req, &resp); err != nil {
		return nil, err
	}
	return taskFromResult(resp, taskID)
}

// DeleteTask permanently deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, taskID string) error {
	req := DeleteTaskRequest{TaskID: taskID}
	var resp DeleteTaskResponse
	if err := callService(ctx, a.container, "delete-task", &req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return mapServiceError(errors.New(resp.Error), taskID)
	}
	if !resp.Deleted {
		return fmt.Errorf("task not deleted: %s", taskID)
	}
	return nil
}

func callService[Resp any](ctx context.Context, container mono.ServiceContainer, service string, req any, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// taskFromResult returns the task in resp or the domain error its Error field describes.
func taskFromResult(resp TaskResult, taskID string) (*domain.Task, error) {
	if resp.Error != "" {
		return nil, mapServiceError(errors.New(resp.Error), taskID)
	}
	if resp.Task == nil {
		return nil, errors.New("task service returned an empty reply")
	}
	return resp.Task, nil
}

// serviceError restores a domain sentinel from an error that crossed the service boundary as text.
type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string {
	return e.msg
}

func (e *serviceError) Unwrap() error {
	return e.kind
}

// mapServiceError matches the remote error message against the domain sentinels.
// Errors that match none are returned unchanged.
func mapServiceError(err error, taskID string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, domain.ErrNotFound.Error()):
		if taskID == "" {
			return &serviceError{kind: domain.ErrNotFound, msg: msg}
		}
		return domain.NewNotFoundError(taskID)
	case strings.Contains(msg, domain.ErrInvalid.Error()):
		return &serviceError{kind: domain.ErrInvalid, msg: msg}
	case strings.Contains(msg, domain.ErrConflict.Error()):
		return &serviceError{kind: domain.ErrConflict, msg: msg}
	}
	return err
}
