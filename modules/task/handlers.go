package task

import (
	"context"

	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
// Handlers never return an error: mono sends no reply for one, so failures
// are reported in the Error field of the response.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	task, err := m.service.Create(ctx, req)
	if err != nil {
		return TaskResult{Error: err.Error()}, nil
	}
	return TaskResult{Task: task}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (PageResult, error) {
	page, err := m.service.FindAll(ctx, req.Pagination, req.Filter)
	if err != nil {
		return PageResult{Error: err.Error()}, nil
	}
	return PageResult{Page: page}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResult, error) {
	task, err := m.service.FindOne(ctx, req.TaskID)
	if err != nil {
		return TaskResult{Error: err.Error()}, nil
	}
	return TaskResult{Task: task}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	task, err := m.service.Update(ctx, req.TaskID, req.Patch)
	if err != nil {
		return TaskResult{Error: err.Error()}, nil
	}
	return TaskResult{Task: task}, nil
}

// deactivateTask handles the deactivate-task service request.
func (m *TaskModule) deactivateTask(ctx context.Context, req DeactivateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	task, err := m.service.SoftDelete(ctx, req.TaskID)
	if err != nil {
		return TaskResult{Error: err.Error()}, nil
	}
	return TaskResult{Task: task}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Remove(ctx, req.TaskID); err != nil {
		return DeleteTaskResponse{Deleted: false, Error: err.Error()}, nil
	}
	return DeleteTaskResponse{Deleted: true}, nil
}
