package tasklist

import (
	"time"

	"github.com/example/tidytasks/domain/user"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ColorTag labels a task list in clients.
type ColorTag string

const (
	ColorRed    ColorTag = "red"
	ColorGreen  ColorTag = "green"
	ColorBlue   ColorTag = "blue"
	ColorYellow ColorTag = "yellow"
	ColorPurple ColorTag = "purple"
	ColorOrange ColorTag = "orange"
)

// TaskList groups tasks. Deleting a list deletes its tasks.
type TaskList struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;size:50"`
	ColorTag  *ColorTag `gorm:"size:20"`
	Category  *string   `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the TaskList entity.
func (TaskList) TableName() string {
	return "task_lists"
}

// Task is a unit of work owned by exactly one TaskList.
type Task struct {
	ID          uint     `gorm:"primaryKey"`
	Title       string   `gorm:"not null;size:200"`
	Description *string  `gorm:"size:1000"`
	Priority    Priority `gorm:"not null;size:10;default:medium;index"`
	IsDone      bool     `gorm:"not null;default:false;index"`
	AssignedTo  *uint    `gorm:"index"`
	ListID      uint     `gorm:"not null;index"`
	CreatedBy   uint     `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Assignee *user.User `gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL"`
	Creator  *user.User `gorm:"foreignKey:CreatedBy"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}
