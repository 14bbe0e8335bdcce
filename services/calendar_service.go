package services

import (
	"time"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/utils"

	"go.uber.org/zap"
)

// CalendarService composes the cache and the diary store to answer "which
// days in this month have meals, and what are they".
type CalendarService struct {
	diary *DiaryService
	cache *CalendarCacheService
}

func NewCalendarService(diary *DiaryService, cache *CalendarCacheService) *CalendarService {
	return &CalendarService{diary: diary, cache: cache}
}

// MonthRecords is the read-through path: cache hit wins, a miss falls
// through to the store and repopulates the cache. A miss is never "no data".
func (s *CalendarService) MonthRecords(userID uint, year int, month time.Month, loc *time.Location) ([]models.MealRecord, error) {
	if records, ok := s.cache.Get(userID, year, month); ok {
		return records, nil
	}

	start, end := utils.MonthWindow(year, month, loc)
	records, err := s.diary.ListByDateRange(userID, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(userID, year, month, records); err != nil {
		utils.L().Warn("calendar cache populate failed", zap.Error(err))
	}
	return records, nil
}

// MonthOverview groups a month's records into a day -> meal-slots map keyed
// by local YYYY-MM-DD, for calendar rendering.
func (s *CalendarService) MonthOverview(userID uint, year int, month time.Month, loc *time.Location) (map[string][]models.MealSlot, error) {
	records, err := s.MonthRecords(userID, year, month, loc)
	if err != nil {
		return nil, err
	}
	overview := make(map[string][]models.MealSlot)
	for _, r := range records {
		key := utils.DateKey(r.CreatedAt, loc)
		overview[key] = append(overview[key], r.Slot)
	}
	return overview, nil
}

// DayDetail returns the full records for one local day grouped by slot.
// Two lunches on the same day stay two entries, never collapsed.
func (s *CalendarService) DayDetail(userID uint, day time.Time, loc *time.Location) (map[models.MealSlot][]models.MealRecord, error) {
	records, err := s.diary.ListByDay(userID, day, loc)
	if err != nil {
		return nil, err
	}
	detail := make(map[models.MealSlot][]models.MealRecord)
	for _, r := range records {
		detail[r.Slot] = append(detail[r.Slot], r)
	}
	return detail, nil
}

// MonthlyStats mirrors the diary page summary card.
type MonthlyStats struct {
	TotalMeals int                     `json:"total_meals"`
	MealCounts map[models.MealSlot]int `json:"meal_counts"`
}

func (s *CalendarService) MonthlyStats(userID uint, year int, month time.Month, loc *time.Location) (*MonthlyStats, error) {
	records, err := s.MonthRecords(userID, year, month, loc)
	if err != nil {
		return nil, err
	}
	stats := &MonthlyStats{
		TotalMeals: len(records),
		MealCounts: map[models.MealSlot]int{
			models.SlotBreakfast: 0,
			models.SlotLunch:     0,
			models.SlotDinner:    0,
		},
	}
	for _, r := range records {
		stats.MealCounts[r.Slot]++
	}
	return stats, nil
}
