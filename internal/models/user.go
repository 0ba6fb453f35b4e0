package models

import (
	"strconv"
	"strings"
	"time"
)

// User is an assignee with a daily capacity and a working-day calendar.
type User struct {
	ID             string  `gorm:"primaryKey;size:32"`
	Name           string  `gorm:"size:128;not null"`
	MaxHoursPerDay float64 `gorm:"default:8"`
	// WorkingDays is a CSV of time.Weekday numbers, Monday=1.
	WorkingDays string `gorm:"size:32;default:1,2,3,4,5"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Capacity returns the user's daily capacity, defaulting to 8 hours.
func (u *User) Capacity() float64 {
	if u.MaxHoursPerDay <= 0 {
		return 8
	}
	return u.MaxHoursPerDay
}

// WorksOn reports whether the given weekday is one of the user's working days.
// An empty WorkingDays field means the default Monday–Friday week.
func (u *User) WorksOn(day time.Weekday) bool {
	if u.WorkingDays == "" {
		return day >= time.Monday && day <= time.Friday
	}
	for _, part := range strings.Split(u.WorkingDays, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if time.Weekday(n) == day {
			return true
		}
	}
	return false
}
