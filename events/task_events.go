package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskAssignedEvent is emitted when a task gets a (new) assignee.
type TaskAssignedEvent struct {
	TaskID     uint      `json:"task_id"`
	ListID     uint      `json:"list_id"`
	Title      string    `json:"title"`
	AssigneeID uint      `json:"assignee_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	AssignedBy uint      `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TaskAssignedV1 is the typed event definition for task assignment.
// Subject: events.tasklist.v1.task-assigned
var TaskAssignedV1 = helper.EventDefinition[TaskAssignedEvent](
	"tasklist", "TaskAssigned", "v1",
)

// TaskCompletedEvent is emitted when a task flips from open to done.
type TaskCompletedEvent struct {
	TaskID      uint      `json:"task_id"`
	ListID      uint      `json:"list_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.tasklist.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"tasklist", "TaskCompleted", "v1",
)

// TaskDeletedEvent is emitted when a task is deleted.
type TaskDeletedEvent struct {
	TaskID    uint      `json:"task_id"`
	ListID    uint      `json:"list_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.tasklist.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"tasklist", "TaskDeleted", "v1",
)
