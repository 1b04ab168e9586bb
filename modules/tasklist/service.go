package tasklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/tidytasks/domain/tasklist"
	"github.com/example/tidytasks/domain/user"
	"github.com/example/tidytasks/events"
	"github.com/example/tidytasks/internal/metrics"
	"github.com/example/tidytasks/internal/validator"
	"github.com/example/tidytasks/modules/auth"
	"go.uber.org/zap"
)

// UserDirectory resolves user ids. auth.AuthPort satisfies it.
type UserDirectory interface {
	GetUser(ctx context.Context, userID uint) (*user.User, error)
}

// Service implements TaskListPort on top of the repositories.
type Service struct {
	lists  *ListRepository
	tasks  *TaskRepository
	users  UserDirectory
	events EventPublisher
	log    *zap.Logger
}

var _ TaskListPort = (*Service)(nil)

// NewService creates a Service. A nil publisher discards events.
func NewService(lists *ListRepository, tasks *TaskRepository, users UserDirectory, publisher EventPublisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Service{
		lists:  lists,
		tasks:  tasks,
		users:  users,
		events: publisher,
		log:    log,
	}
}

// SetPublisher swaps the event publisher once the event bus is known.
func (s *Service) SetPublisher(publisher EventPublisher) {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	s.events = publisher
}

// CreateList validates and stores a new task list.
func (s *Service) CreateList(ctx context.Context, in ListInput) (*TaskListResponse, error) {
	list, err := buildList(in)
	if err != nil {
		return nil, err
	}

	if err := s.lists.Create(ctx, list); err != nil {
		s.log.Error("failed to create task list", zap.Error(err))
		return nil, domain.ErrListCreation
	}
	metrics.ListsCreated.Inc()

	resp := toTaskListResponse(list)
	return &resp, nil
}

// GetList returns a task list with its tasks.
func (s *Service) GetList(ctx context.Context, listID uint) (*TaskListResponse, error) {
	list, err := s.lists.FindByID(ctx, listID, true)
	if err != nil {
		return nil, err
	}
	resp := toTaskListResponse(list)
	return &resp, nil
}

// UpdateList replaces the name, color tag and category of a task list.
func (s *Service) UpdateList(ctx context.Context, listID uint, in ListInput) (*TaskListResponse, error) {
	list, err := buildList(in)
	if err != nil {
		return nil, err
	}
	list.ID = listID

	if err := s.lists.Update(ctx, list); err != nil {
		return nil, err
	}
	return s.GetList(ctx, listID)
}

// DeleteList removes a task list and its tasks, publishing TaskDeleted for
// each task.
func (s *Service) DeleteList(ctx context.Context, listID uint) error {
	taskIDs, err := s.lists.Delete(ctx, listID)
	if err != nil {
		return err
	}
	s.log.Info("task list deleted", zap.Uint("list_id", listID), zap.Int("tasks", len(taskIDs)))

	now := time.Now()
	for _, taskID := range taskIDs {
		s.publishDeleted(listID, taskID, now)
	}
	return nil
}

// ListTasks returns the tasks of a list matching the filter. The completion
// percentage always covers every task of the list. An unknown list yields
// no tasks and 0.
func (s *Service) ListTasks(ctx context.Context, filter TaskFilter) (*TaskPageResponse, error) {
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, filter.ListID, filter.IsDone, filter.Priority)
	if err != nil {
		return nil, err
	}
	total, done, err := s.tasks.Counts(ctx, filter.ListID)
	if err != nil {
		return nil, err
	}

	return &TaskPageResponse{
		Tasks:                toTaskResponses(tasks),
		CompletionPercentage: domain.CompletionPercentage(done, total),
	}, nil
}

// CreateTask validates and stores a task under an existing list.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*TaskResponse, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	priority := domain.PriorityMedium
	if in.Priority != nil {
		priority = *in.Priority
	}

	exists, err := s.lists.Exists(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrListNotFound
	}

	assignee, err := s.resolveAssignee(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		ListID:      in.ListID,
		CreatedBy:   in.CreatedBy,
	}
	if assignee != nil {
		task.AssignedTo = &assignee.ID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	metrics.TasksCreated.Inc()

	if assignee != nil {
		s.publishAssigned(task, assignee, in.CreatedBy)
	}

	resp := toTaskResponse(task)
	return &resp, nil
}

// GetTask returns one task of a list.
func (s *Service) GetTask(ctx context.Context, listID, taskID uint) (*TaskResponse, error) {
	task, err := s.tasks.FindByID(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

// UpdateTask applies the provided fields only.
func (s *Service) UpdateTask(ctx context.Context, listID, taskID uint, in UpdateTaskInput) (*TaskResponse, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	current, err := s.tasks.FindByID(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now()}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Priority != nil {
		fields["priority"] = *in.Priority
	}
	if in.IsDone != nil {
		fields["is_done"] = *in.IsDone
	}

	var assignee *user.User
	if in.AssignedTo != nil {
		assignee, err = s.resolveAssignee(ctx, in.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assignee == nil {
			fields["assigned_to"] = nil
		} else {
			fields["assigned_to"] = assignee.ID
		}
	}

	if err := s.tasks.Update(ctx, listID, taskID, fields); err != nil {
		return nil, err
	}

	updated, err := s.tasks.FindByID(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}

	if assignee != nil && !sameAssignee(current.AssignedTo, assignee.ID) {
		s.publishAssigned(updated, assignee, in.UpdatedBy)
	}
	if !current.IsDone && updated.IsDone {
		s.publishCompleted(updated)
	}

	resp := toTaskResponse(updated)
	return &resp, nil
}

// DeleteTask removes a task, failing with ErrTaskNotFound when absent.
func (s *Service) DeleteTask(ctx context.Context, listID, taskID uint) error {
	deleted, err := s.tasks.Delete(ctx, listID, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrTaskNotFound
	}

	s.publishDeleted(listID, taskID, time.Now())
	return nil
}

// SetTaskStatus sets the completion flag. Repeating a call is a no-op.
func (s *Service) SetTaskStatus(ctx context.Context, listID, taskID uint, isDone bool) (*TaskResponse, error) {
	current, err := s.tasks.FindByID(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, listID, taskID, map[string]any{
		"is_done":    isDone,
		"updated_at": time.Now(),
	}); err != nil {
		return nil, err
	}

	updated, err := s.tasks.FindByID(ctx, listID, taskID)
	if err != nil {
		return nil, err
	}
	if !current.IsDone && updated.IsDone {
		s.publishCompleted(updated)
	}

	resp := toTaskResponse(updated)
	return &resp, nil
}

// resolveAssignee maps an optional assignee id to a user. Nil and 0 mean
// no assignee.
func (s *Service) resolveAssignee(ctx context.Context, assignedTo *uint) (*user.User, error) {
	if assignedTo == nil || *assignedTo == 0 {
		return nil, nil
	}
	if s.users == nil {
		return nil, fmt.Errorf("user directory not configured")
	}

	u, err := s.users.GetUser(ctx, *assignedTo)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, domain.ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}
	return u, nil
}

func (s *Service) publishAssigned(task *domain.Task, assignee *user.User, by uint) {
	evt := events.TaskAssignedEvent{
		TaskID:     task.ID,
		ListID:     task.ListID,
		Title:      task.Title,
		AssigneeID: assignee.ID,
		Email:      assignee.Email,
		Username:   assignee.Username,
		AssignedBy: by,
		AssignedAt: time.Now(),
	}
	if err := s.events.TaskAssigned(evt); err != nil {
		s.log.Warn("failed to publish TaskAssigned event", zap.Uint("task_id", task.ID), zap.Error(err))
	}
}

func (s *Service) publishDeleted(listID, taskID uint, at time.Time) {
	evt := events.TaskDeletedEvent{
		TaskID:    taskID,
		ListID:    listID,
		DeletedAt: at,
	}
	if err := s.events.TaskDeleted(evt); err != nil {
		s.log.Warn("failed to publish TaskDeleted event", zap.Uint("task_id", taskID), zap.Error(err))
	}
}

func (s *Service) publishCompleted(task *domain.Task) {
	evt := events.TaskCompletedEvent{
		TaskID:      task.ID,
		ListID:      task.ListID,
		Title:       task.Title,
		CompletedAt: task.UpdatedAt,
	}
	if err := s.events.TaskCompleted(evt); err != nil {
		s.log.Warn("failed to publish TaskCompleted event", zap.Uint("task_id", task.ID), zap.Error(err))
	}
}

func buildList(in ListInput) (*domain.TaskList, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	return &domain.TaskList{
		Name:     in.Name,
		ColorTag: in.ColorTag,
		Category: in.Category,
		Tasks:    []domain.Task{},
	}, nil
}

func sameAssignee(current *uint, id uint) bool {
	return current != nil && *current == id
}
