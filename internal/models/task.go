package models

import "time"

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task kinds. Connected tasks participate in the dependency graph.
const (
	KindIndependent = "independent"
	KindConnected   = "connected"
)

// Schedule policies for connected tasks.
const (
	PolicySecure   = "secure"
	PolicyAuto     = "auto"
	PolicyStandard = "standard"
)

// Task is the core work item in Replan.
type Task struct {
	ID              string     `gorm:"primaryKey;size:32"`
	Title           string     `gorm:"not null"`
	Description     string     `gorm:"type:text"`
	Status          string     `gorm:"size:16;default:todo;index"`
	Priority        string     `gorm:"size:16;default:medium"`
	Kind            string     `gorm:"size:16;default:independent"`
	SchedulePolicy  string     `gorm:"size:16;default:standard"`
	ProjectID       string     `gorm:"size:32;index"`
	AssigneeID      *string    `gorm:"size:32;index"`
	StartDate       *time.Time
	EndDate         *time.Time
	EstimatedFinish *time.Time
	ActualFinish    *time.Time
	EstimatedHours  *float64
	ActualHours     *float64
	DelayDays       int `gorm:"default:0"`
	WorkloadPercent int `gorm:"default:0"`
	Bottleneck      bool `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Project  Project   `gorm:"foreignKey:ProjectID"`
	Assignee *User     `gorm:"foreignKey:AssigneeID"`
	Deps     []TaskDep `gorm:"foreignKey:TaskID"`
}

// TaskDep represents a dependency edge: TaskID depends on DependsOn,
// meaning TaskID cannot start before DependsOn finishes.
type TaskDep struct {
	TaskID    string `gorm:"primaryKey;size:32"`
	DependsOn string `gorm:"primaryKey;size:32"`

	Task       Task `gorm:"foreignKey:TaskID"`
	Dependency Task `gorm:"foreignKey:DependsOn"`
}

// Completed reports whether the task has reached its terminal status.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// FinishEstimate returns the date a completion is measured against:
// the explicit estimated finish if set, otherwise the end date.
func (t *Task) FinishEstimate() *time.Time {
	if t.EstimatedFinish != nil {
		return t.EstimatedFinish
	}
	return t.EndDate
}
