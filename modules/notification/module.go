package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/tidytasks/events"
	"github.com/example/tidytasks/internal/metrics"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
)

const maxLogEntries = 1000

// NotificationLog is one handled task event.
type NotificationLog struct {
	TaskID    uint      `json:"task_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Channel   string    `json:"channel"`
	Delivered bool      `json:"delivered"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationModule reacts to task events: assignees get an invitation,
// completions and deletions are recorded.
type NotificationModule struct {
	sender        Sender
	log           *zap.Logger
	notifications []NotificationLog
	mu            sync.RWMutex
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

// NewModule creates a NotificationModule. A nil sender logs only.
func NewModule(sender Sender, log *zap.Logger) *NotificationModule {
	log = log.Named("notification")
	if sender == nil {
		sender = NewLogSender(log)
	}
	return &NotificationModule{
		sender:        sender,
		log:           log,
		notifications: make([]NotificationLog, 0),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskAssignedV1, m.handleTaskAssigned, m); err != nil {
		return fmt.Errorf("failed to register TaskAssigned consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.log.Info("registered event consumers", zap.Strings("events", []string{"TaskAssigned", "TaskCompleted", "TaskDeleted"}))
	return nil
}

// handleTaskAssigned sends the invitation. Delivery failures are logged and
// recorded but not returned, so the event is not redelivered.
func (m *NotificationModule) handleTaskAssigned(ctx context.Context, event events.TaskAssignedEvent, _ *mono.Msg) error {
	err := m.sender.Send(ctx, Message{
		To:       event.Email,
		Template: "task_assigned.tmpl",
		Data:     event,
	})
	metrics.RecordNotification(m.sender.Channel(), err)
	if err != nil {
		m.log.Error("failed to send assignment notification",
			zap.Uint("task_id", event.TaskID),
			zap.String("to", event.Email),
			zap.Error(err),
		)
	}

	m.record(NotificationLog{
		TaskID:    event.TaskID,
		Type:      "task_assigned",
		Message:   fmt.Sprintf("Task '%s' assigned to %s", event.Title, event.Email),
		Channel:   m.sender.Channel(),
		Delivered: err == nil,
	})
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.log.Info("task completed", zap.Uint("task_id", event.TaskID), zap.Uint("list_id", event.ListID))
	m.record(NotificationLog{
		TaskID:    event.TaskID,
		Type:      "task_completed",
		Message:   fmt.Sprintf("Task '%s' completed", event.Title),
		Channel:   "event",
		Delivered: true,
	})
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.log.Info("task deleted", zap.Uint("task_id", event.TaskID), zap.Uint("list_id", event.ListID))
	m.record(NotificationLog{
		TaskID:    event.TaskID,
		Type:      "task_deleted",
		Message:   fmt.Sprintf("Task %d deleted from list %d", event.TaskID, event.ListID),
		Channel:   "event",
		Delivered: true,
	})
	return nil
}

func (m *NotificationModule) record(entry NotificationLog) {
	entry.Timestamp = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.notifications) >= maxLogEntries {
		m.notifications = m.notifications[1:]
	}
	m.notifications = append(m.notifications, entry)
}

// GetNotifications returns a copy of the recorded notifications, oldest first.
func (m *NotificationModule) GetNotifications() []NotificationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]NotificationLog, len(m.notifications))
	copy(result, m.notifications)
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	m.log.Info("module started", zap.String("channel", m.sender.Channel()))
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	m.log.Info("module stopped")
	return nil
}

func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.RLock()
	handled := len(m.notifications)
	m.mu.RUnlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"channel": m.sender.Channel(),
			"handled": handled,
		},
	}
}
