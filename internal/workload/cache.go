package workload

import (
	"fmt"
	"time"

	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

// CacheDaily replaces the stored snapshots for one project/day with freshly
// computed samples. Snapshots are a projection over Task rows; callers may
// drop and recompute them at any time.
func CacheDaily(db *gorm.DB, projectID string, date time.Time, samples []Sample) error {
	day := dateOnly(date)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND date = ?", projectID, day).
			Delete(&models.WorkloadSnapshot{}).Error; err != nil {
			return fmt.Errorf("workload: clear snapshots for %s on %s: %w",
				projectID, day.Format("2006-01-02"), err)
		}
		for _, s := range samples {
			row := models.WorkloadSnapshot{
				ProjectID:      projectID,
				UserID:         s.UserID,
				Date:           day,
				HoursAllocated: s.HoursAllocated,
				HoursAvailable: s.HoursAvailable,
				LoadPercent:    s.LoadPercent,
				Overloaded:     s.Overloaded,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("workload: cache snapshot for %s/%s: %w", projectID, s.UserID, err)
			}
		}
		return nil
	})
}

// CachedDaily loads stored snapshots for one project/day. An empty slice
// means nothing is cached; callers should recompute via Daily.
func CachedDaily(db *gorm.DB, projectID string, date time.Time) ([]models.WorkloadSnapshot, error) {
	var rows []models.WorkloadSnapshot
	if err := db.Where("project_id = ? AND date = ?", projectID, dateOnly(date)).
		Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("workload: load snapshots for %s: %w", projectID, err)
	}
	return rows, nil
}
