package tasklist

import (
	"context"
	"encoding/json"
	"strings"

	domain "github.com/example/tidytasks/domain/tasklist"
	"github.com/example/tidytasks/internal/validator"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskListAdapter implements TaskListPort using the service container.
type TaskListAdapter struct {
	container mono.ServiceContainer
}

var _ TaskListPort = (*TaskListAdapter)(nil)

// NewTaskListAdapter creates a new TaskListAdapter.
func NewTaskListAdapter(container mono.ServiceContainer) *TaskListAdapter {
	if container == nil {
		panic("tasklist adapter requires non-nil ServiceContainer")
	}
	return &TaskListAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return mapServiceError(err)
	}
	return nil
}

// CreateList creates a task list.
func (a *TaskListAdapter) CreateList(ctx context.Context, in ListInput) (*TaskListResponse, error) {
	var resp TaskListResponse
	if err := call(ctx, a.container, "create-list", &in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetList retrieves a task list with its tasks.
func (a *TaskListAdapter) GetList(ctx context.Context, listID uint) (*TaskListResponse, error) {
	req := ListIDRequest{ListID: listID}
	var resp TaskListResponse
	if err := call(ctx, a.container, "get-list", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateList replaces a task list's fields.
func (a *TaskListAdapter) UpdateList(ctx context.Context, listID uint, in ListInput) (*TaskListResponse, error) {
	req := UpdateListRequest{ListID: listID, Input: in}
	var resp TaskListResponse
	if err := call(ctx, a.container, "update-list", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteList deletes a task list and its tasks.
func (a *TaskListAdapter) DeleteList(ctx context.Context, listID uint) error {
	req := ListIDRequest{ListID: listID}
	var resp DeleteResponse
	return call(ctx, a.container, "delete-list", &req, &resp)
}

// ListTasks filters the tasks of a list.
func (a *TaskListAdapter) ListTasks(ctx context.Context, filter TaskFilter) (*TaskPageResponse, error) {
	var resp TaskPageResponse
	if err := call(ctx, a.container, "list-tasks", &filter, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTask creates a task.
func (a *TaskListAdapter) CreateTask(ctx context.Context, in CreateTaskInput) (*TaskResponse, error) {
	var resp TaskResponse
	if err := call(ctx, a.container, "create-task", &in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask retrieves a task.
func (a *TaskListAdapter) GetTask(ctx context.Context, listID, taskID uint) (*TaskResponse, error) {
	req := TaskIDRequest{ListID: listID, TaskID: taskID}
	var resp TaskResponse
	if err := call(ctx, a.container, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask partially updates a task.
func (a *TaskListAdapter) UpdateTask(ctx context.Context, listID, taskID uint, in UpdateTaskInput) (*TaskResponse, error) {
	req := UpdateTaskRequest{ListID: listID, TaskID: taskID, Input: in}
	var resp TaskResponse
	if err := call(ctx, a.container, "update-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask deletes a task.
func (a *TaskListAdapter) DeleteTask(ctx context.Context, listID, taskID uint) error {
	req := TaskIDRequest{ListID: listID, TaskID: taskID}
	var resp DeleteResponse
	return call(ctx, a.container, "delete-task", &req, &resp)
}

// SetTaskStatus sets a task's completion flag.
func (a *TaskListAdapter) SetTaskStatus(ctx context.Context, listID, taskID uint, isDone bool) (*TaskResponse, error) {
	req := SetTaskStatusRequest{ListID: listID, TaskID: taskID, IsDone: isDone}
	var resp TaskResponse
	if err := call(ctx, a.container, "set-task-status", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// mapServiceError restores domain sentinels from errors that crossed the
// bus as plain text.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	if verr, ok := validator.Parse(err.Error()); ok {
		return verr
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, domain.ErrListNotFound.Error()):
		return domain.ErrListNotFound
	case strings.Contains(errMsg, domain.ErrTaskNotFound.Error()):
		return domain.ErrTaskNotFound
	case strings.Contains(errMsg, domain.ErrAssigneeNotFound.Error()):
		return domain.ErrAssigneeNotFound
	case strings.Contains(errMsg, domain.ErrListCreation.Error()):
		return domain.ErrListCreation
	case strings.Contains(errMsg, domain.ErrIntegrity.Error()):
		return domain.ErrIntegrity
	}

	return err
}
