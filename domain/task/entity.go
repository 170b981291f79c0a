package task

import "time"

// Status represents the workflow state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
	StatusPaused     Status = "Paused"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusDone, StatusPaused}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusPaused:
		return true
	}
	return false
}

// Priority is a color-coded urgency level.
type Priority string

const (
	PriorityLow    Priority = "Blue"
	PriorityNormal Priority = "Yellow"
	PriorityHigh   Priority = "Red"
)

// Priorities lists every valid Priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// MaxNameLength is the maximum number of characters in a task name.
const MaxNameLength = 255

// Task is the core domain entity representing a todo item.
// Timestamps are assigned by the service, not by GORM.
type Task struct {
	ID          string     `gorm:"primarykey;size:36" json:"id"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description *string    `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      Status     `gorm:"size:20;not null;default:Pending;index:idx_tasks_status;index:idx_tasks_is_active_status,priority:2" json:"status"`
	Priority    Priority   `gorm:"size:10;not null;default:Yellow" json:"priority"`
	IsActive    bool       `gorm:"not null;index:idx_tasks_is_active;index:idx_tasks_is_active_status,priority:1" json:"isActive"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// New builds an active task with default status and priority.
// Identity and timestamps are assigned when the task is persisted.
func New(name string) *Task {
	return &Task{
		Name:     name,
		Status:   StatusPending,
		Priority: PriorityNormal,
		IsActive: true,
	}
}
