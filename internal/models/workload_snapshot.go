package models

import "time"

// WorkloadSnapshot caches one user's computed load for one day. Rows are a
// projection over Task records and are recomputed on demand; they are never
// the source of truth.
type WorkloadSnapshot struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	ProjectID      string    `gorm:"size:32;index:idx_project_date"`
	UserID         string    `gorm:"size:32;index"`
	Date           time.Time `gorm:"index:idx_project_date"`
	HoursAllocated float64
	HoursAvailable float64
	LoadPercent    int
	Overloaded     bool
	CreatedAt      time.Time
}
