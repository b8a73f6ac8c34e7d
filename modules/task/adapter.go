package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the task operations available to other modules.
type TaskPort interface {
	Add(ctx context.Context, userID, title, description string) (task.Task, error)
	Toggle(ctx context.Context, userID, taskID string) (task.Task, error)
	Edit(ctx context.Context, userID, taskID, title, description string) (task.Task, error)
	Delete(ctx context.Context, userID, taskID string) (bool, error)
	Clear(ctx context.Context, userID string) (int, error)
	Get(ctx context.Context, userID, taskID string) (task.Task, error)
	List(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error)
	Stats(ctx context.Context, userID string) (*StatsResponse, error)
}

// TaskAdapter implements TaskPort over the service container. Validation
// and not-found failures are restored to task.ValidationError and
// task.ErrNotFound.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

func (a *TaskAdapter) Add(ctx context.Context, userID, title, description string) (task.Task, error) {
	req := AddTaskRequest{UserID: userID, Title: title, Description: description}
	var resp TaskResponse
	if err := a.call(ctx, "add-task", &req, &resp); err != nil {
		return task.Task{}, err
	}
	return resp.Task, nil
}

func (a *TaskAdapter) Toggle(ctx context.Context, userID, taskID string) (task.Task, error) {
	req := TaskRefRequest{UserID: userID, TaskID: taskID}
	var resp TaskResponse
	if err := a.call(ctx, "toggle-task", &req, &resp); err != nil {
		return task.Task{}, err
	}
	return resp.Task, nil
}

func (a *TaskAdapter) Edit(ctx context.Context, userID, taskID, title, description string) (task.Task, error) {
	req := EditTaskRequest{UserID: userID, TaskID: taskID, Title: title, Description: description}
	var resp TaskResponse
	if err := a.call(ctx, "edit-task", &req, &resp); err != nil {
		return task.Task{}, err
	}
	return resp.Task, nil
}

func (a *TaskAdapter) Delete(ctx context.Context, userID, taskID string) (bool, error) {
	req := TaskRefRequest{UserID: userID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := a.call(ctx, "delete-task", &req, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (a *TaskAdapter) Clear(ctx context.Context, userID string) (int, error) {
	req := UserRequest{UserID: userID}
	var resp ClearTasksResponse
	if err := a.call(ctx, "clear-tasks", &req, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *TaskAdapter) Get(ctx context.Context, userID, taskID string) (task.Task, error) {
	req := TaskRefRequest{UserID: userID, TaskID: taskID}
	var resp TaskResponse
	if err := a.call(ctx, "get-task", &req, &resp); err != nil {
		return task.Task{}, err
	}
	return resp.Task, nil
}

func (a *TaskAdapter) List(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := a.call(ctx, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []task.Task{}
	}
	return &resp, nil
}

func (a *TaskAdapter) Stats(ctx context.Context, userID string) (*StatsResponse, error) {
	req := UserRequest{UserID: userID}
	var resp StatsResponse
	if err := a.call(ctx, "task-stats", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *TaskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return restoreError(service, err)
	}
	return nil
}

// restoreError maps an error message received over request-reply back to
// the domain error it was built from.
func restoreError(service string, err error) error {
	msg := err.Error()
	if i := strings.Index(msg, ValidationErrorPrefix); i >= 0 {
		return &task.ValidationError{Message: msg[i+len(ValidationErrorPrefix):]}
	}
	if strings.Contains(msg, task.ErrNotFound.Error()) {
		return task.ErrNotFound
	}
	return fmt.Errorf("%s request failed: %w", service, err)
}
