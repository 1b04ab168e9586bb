package tasklist

import (
	"context"
	"time"

	domain "github.com/example/tidytasks/domain/tasklist"
)

// TaskListPort defines the task list and task operations other modules use.
type TaskListPort interface {
	CreateList(ctx context.Context, in ListInput) (*TaskListResponse, error)
	GetList(ctx context.Context, listID uint) (*TaskListResponse, error)
	UpdateList(ctx context.Context, listID uint, in ListInput) (*TaskListResponse, error)
	DeleteList(ctx context.Context, listID uint) error
	ListTasks(ctx context.Context, filter TaskFilter) (*TaskPageResponse, error)

	CreateTask(ctx context.Context, in CreateTaskInput) (*TaskResponse, error)
	GetTask(ctx context.Context, listID, taskID uint) (*TaskResponse, error)
	UpdateTask(ctx context.Context, listID, taskID uint, in UpdateTaskInput) (*TaskResponse, error)
	DeleteTask(ctx context.Context, listID, taskID uint) error
	SetTaskStatus(ctx context.Context, listID, taskID uint, isDone bool) (*TaskResponse, error)
}

// ListInput carries the mutable fields of a task list. Updates replace all
// of them.
type ListInput struct {
	Name     string           `json:"name" validate:"notblank,min=3,max=50"`
	ColorTag *domain.ColorTag `json:"color_tag,omitempty" validate:"omitnil,oneof=red green blue yellow purple orange"`
	Category *string          `json:"category,omitempty" validate:"omitnil,max=255"`
}

// TaskFilter selects tasks of one list. Nil filters match everything.
type TaskFilter struct {
	ListID   uint             `json:"list_id"`
	IsDone   *bool            `json:"is_done,omitempty"`
	Priority *domain.Priority `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
}

// CreateTaskInput carries a new task. AssignedTo 0 means unassigned.
type CreateTaskInput struct {
	ListID      uint             `json:"list_id"`
	Title       string           `json:"title" validate:"notblank,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=1000"`
	Priority    *domain.Priority `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
	AssignedTo  *uint            `json:"assigned_to,omitempty"`
	CreatedBy   uint             `json:"created_by"`
}

// UpdateTaskInput is a partial update; nil fields are left untouched and
// AssignedTo 0 clears the assignee.
type UpdateTaskInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitnil,notblank,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitnil,max=1000"`
	Priority    *domain.Priority `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
	AssignedTo  *uint            `json:"assigned_to,omitempty"`
	IsDone      *bool            `json:"is_done,omitempty"`
	UpdatedBy   uint             `json:"updated_by,omitempty"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    domain.Priority `json:"priority"`
	IsDone      bool            `json:"is_done"`
	AssignedTo  *uint           `json:"assigned_to"`
	ListID      uint            `json:"list_id"`
	CreatedBy   uint            `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TaskListResponse is the wire form of a task list with its tasks.
type TaskListResponse struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	ColorTag  *domain.ColorTag `json:"color_tag"`
	Category  *string          `json:"category"`
	Tasks     []TaskResponse   `json:"tasks"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TaskPageResponse pairs filtered tasks with the completion percentage of
// the whole list.
type TaskPageResponse struct {
	Tasks                []TaskResponse `json:"tasks"`
	CompletionPercentage float64        `json:"completion_percentage"`
}

// Request-reply payloads.

type ListIDRequest struct {
	ListID uint `json:"list_id"`
}

type UpdateListRequest struct {
	ListID uint      `json:"list_id"`
	Input  ListInput `json:"input"`
}

type TaskIDRequest struct {
	ListID uint `json:"list_id"`
	TaskID uint `json:"task_id"`
}

type UpdateTaskRequest struct {
	ListID uint            `json:"list_id"`
	TaskID uint            `json:"task_id"`
	Input  UpdateTaskInput `json:"input"`
}

type SetTaskStatusRequest struct {
	ListID uint `json:"list_id"`
	TaskID uint `json:"task_id"`
	IsDone bool `json:"is_done"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		IsDone:      t.IsDone,
		AssignedTo:  t.AssignedTo,
		ListID:      t.ListID,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	return out
}

func toTaskListResponse(l *domain.TaskList) TaskListResponse {
	return TaskListResponse{
		ID:        l.ID,
		Name:      l.Name,
		ColorTag:  l.ColorTag,
		Category:  l.Category,
		Tasks:     toTaskResponses(l.Tasks),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}
