package tasklist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/tidytasks/events"
	"github.com/example/tidytasks/internal/database"
	"github.com/example/tidytasks/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskListModule owns task lists and tasks.
type TaskListModule struct {
	db       *gorm.DB
	service  *Service
	authPort auth.AuthPort
	eventBus mono.EventBus
	log      *zap.Logger
}

var _ mono.Module = (*TaskListModule)(nil)
var _ mono.ServiceProviderModule = (*TaskListModule)(nil)
var _ mono.DependentModule = (*TaskListModule)(nil)
var _ mono.EventEmitterModule = (*TaskListModule)(nil)
var _ mono.HealthCheckableModule = (*TaskListModule)(nil)

// NewModule creates a TaskListModule over an already migrated database.
func NewModule(db *gorm.DB, log *zap.Logger) *TaskListModule {
	log = log.Named("tasklist")
	return &TaskListModule{
		db:      db,
		service: NewService(NewListRepository(db), NewTaskRepository(db), nil, nil, log),
		log:     log,
	}
}

func (m *TaskListModule) Name() string {
	return "tasklist"
}

func (m *TaskListModule) Dependencies() []string {
	return []string{"auth"}
}

func (m *TaskListModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authPort = auth.NewAuthAdapter(container)
		m.service.users = m.authPort
	}
}

func (m *TaskListModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	m.service.SetPublisher(NewBusPublisher(bus))
}

func (m *TaskListModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskAssignedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskListModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-list", json.Unmarshal, json.Marshal, m.createList,
	); err != nil {
		return fmt.Errorf("failed to register create-list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-list", json.Unmarshal, json.Marshal, m.getList,
	); err != nil {
		return fmt.Errorf("failed to register get-list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-list", json.Unmarshal, json.Marshal, m.updateList,
	); err != nil {
		return fmt.Errorf("failed to register update-list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-list", json.Unmarshal, json.Marshal, m.deleteList,
	); err != nil {
		return fmt.Errorf("failed to register delete-list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "set-task-status", json.Unmarshal, json.Marshal, m.setTaskStatus,
	); err != nil {
		return fmt.Errorf("failed to register set-task-status service: %w", err)
	}

	m.log.Info("registered services", zap.Strings("services", []string{
		"create-list", "get-list", "update-list", "delete-list", "list-tasks",
		"create-task", "get-task", "update-task", "delete-task", "set-task-status",
	}))
	return nil
}

func (m *TaskListModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.eventBus == nil {
		m.log.Warn("eventBus not set, events will not be published")
	}
	m.log.Info("module started", zap.Strings("depends_on", m.Dependencies()))
	return nil
}

func (m *TaskListModule) Stop(_ context.Context) error {
	m.log.Info("module stopped")
	return nil
}

func (m *TaskListModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"events_enabled": m.eventBus != nil,
		},
	}
}

func (m *TaskListModule) createList(ctx context.Context, req ListInput, _ *mono.Msg) (TaskListResponse, error) {
	resp, err := m.service.CreateList(ctx, req)
	if err != nil {
		return TaskListResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) getList(ctx context.Context, req ListIDRequest, _ *mono.Msg) (TaskListResponse, error) {
	resp, err := m.service.GetList(ctx, req.ListID)
	if err != nil {
		return TaskListResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) updateList(ctx context.Context, req UpdateListRequest, _ *mono.Msg) (TaskListResponse, error) {
	resp, err := m.service.UpdateList(ctx, req.ListID, req.Input)
	if err != nil {
		return TaskListResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) deleteList(ctx context.Context, req ListIDRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.service.DeleteList(ctx, req.ListID); err != nil {
		return DeleteResponse{Deleted: false}, err
	}
	return DeleteResponse{Deleted: true}, nil
}

func (m *TaskListModule) listTasks(ctx context.Context, req TaskFilter, _ *mono.Msg) (TaskPageResponse, error) {
	resp, err := m.service.ListTasks(ctx, req)
	if err != nil {
		return TaskPageResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) createTask(ctx context.Context, req CreateTaskInput, _ *mono.Msg) (TaskResponse, error) {
	resp, err := m.service.CreateTask(ctx, req)
	if err != nil {
		return TaskResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) getTask(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (TaskResponse, error) {
	resp, err := m.service.GetTask(ctx, req.ListID, req.TaskID)
	if err != nil {
		return TaskResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	resp, err := m.service.UpdateTask(ctx, req.ListID, req.TaskID, req.Input)
	if err != nil {
		return TaskResponse{}, err
	}
	return *resp, nil
}

func (m *TaskListModule) deleteTask(ctx context.Context, req TaskIDRequest, _ *mono.Msg) (DeleteResponse, error) {
	if err := m.service.DeleteTask(ctx, req.ListID, req.TaskID); err != nil {
		return DeleteResponse{Deleted: false}, err
	}
	return DeleteResponse{Deleted: true}, nil
}

func (m *TaskListModule) setTaskStatus(ctx context.Context, req SetTaskStatusRequest, _ *mono.Msg) (TaskResponse, error) {
	resp, err := m.service.SetTaskStatus(ctx, req.ListID, req.TaskID, req.IsDone)
	if err != nil {
		return TaskResponse{}, err
	}
	return *resp, nil
}
