package models

import "time"

// ScheduleChange records one task's date shift produced by a reschedule.
// Rows double as the audit trail and the API response payload.
type ScheduleChange struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	TaskID    string `gorm:"size:32;index" json:"taskId"`
	ProjectID string `gorm:"size:32;index" json:"projectId"`
	OldStart  *time.Time `json:"oldStart"`
	NewStart  *time.Time `json:"newStart"`
	OldEnd    *time.Time `json:"oldEnd"`
	NewEnd    *time.Time `json:"newEnd"`
	Reason    string     `gorm:"size:256" json:"reason"`
	// ImpactDays is signed: positive means delayed, negative means earlier.
	ImpactDays int       `json:"impactDays"`
	CreatedAt  time.Time `json:"-"`
}
