package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// CalendarCache is a per-user, per-month snapshot of diary records with an
// absolute expiry. Never authoritative: always reconstructable from the
// meal_records table.
type CalendarCache struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"uniqueIndex:idx_calendar_cache_user_key;not null"`
	CacheKey  string         `gorm:"size:16;uniqueIndex:idx_calendar_cache_user_key;not null"`
	Data      datatypes.JSON // snapshot []MealRecord with foods/steps
	ExpiresAt time.Time      `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarCacheKey builds the "YYYY-M" composite key, month 1-based.
func CalendarCacheKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}
