package models

import "time"

// Project groups tasks and carries schedule-level state.
type Project struct {
	ID              string `gorm:"primaryKey;size:32"`
	Name            string `gorm:"size:128;not null"`
	StartDate       *time.Time
	EndDate         *time.Time
	OriginalEndDate *time.Time
	DelayDays       int  `gorm:"default:0"`
	AutoReschedule  bool `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Tasks []Task `gorm:"foreignKey:ProjectID"`
}
