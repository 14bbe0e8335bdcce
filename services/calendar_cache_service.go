package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalendarCacheTTL bounds how stale a month snapshot may get.
const CalendarCacheTTL = 30 * time.Minute

// CalendarCacheService is the keyed month-snapshot store in front of the
// diary. It is an optional accelerator: every failure here degrades to a
// cache miss and never blocks a read or write.
type CalendarCacheService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCalendarCacheService(db *gorm.DB) *CalendarCacheService {
	return &CalendarCacheService{db: db, now: time.Now}
}

// Get returns the cached records for (user, year, month), or a miss when no
// entry exists or the entry expired. Expired rows are deleted on the spot so
// later upserts do not race a stale target.
func (s *CalendarCacheService) Get(userID uint, year int, month time.Month) ([]models.MealRecord, bool) {
	key := models.CalendarCacheKey(year, month)

	var entry models.CalendarCache
	err := s.db.
		Where("user_id = ? AND cache_key = ?", userID, key).
		First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.L().Warn("calendar cache read failed", zap.Error(err))
		}
		return nil, false
	}

	if !entry.ExpiresAt.After(s.now()) {
		s.deleteKey(userID, key)
		return nil, false
	}

	var records []models.MealRecord
	if err := json.Unmarshal(entry.Data, &records); err != nil {
		utils.L().Warn("calendar cache entry corrupt, dropping", zap.Error(err))
		s.deleteKey(userID, key)
		return nil, false
	}
	return records, true
}

// Put upserts the month snapshot and resets its expiry to now + TTL.
// Concurrent writers for the same key are last-write-wins.
func (s *CalendarCacheService) Put(userID uint, year int, month time.Month, records []models.MealRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	entry := models.CalendarCache{
		UserID:    userID,
		CacheKey:  models.CalendarCacheKey(year, month),
		Data:      data,
		ExpiresAt: s.now().Add(CalendarCacheTTL),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(&entry).Error
}

// Invalidate drops the entry for one month. Missing keys are a no-op.
func (s *CalendarCacheService) Invalidate(userID uint, year int, month time.Month) error {
	return s.deleteKey(userID, models.CalendarCacheKey(year, month))
}

// InvalidateAll drops every entry for the user; used when the affected
// month cannot be cheaply determined.
func (s *CalendarCacheService) InvalidateAll(userID uint) error {
	return s.db.
		Where("user_id = ?", userID).
		Delete(&models.CalendarCache{}).Error
}

// PurgeExpired deletes every expired row; run by the janitor. The read
// path's lazy delete stays authoritative, this just keeps the table small.
func (s *CalendarCacheService) PurgeExpired() (int64, error) {
	res := s.db.
		Where("expires_at <= ?", s.now()).
		Delete(&models.CalendarCache{})
	return res.RowsAffected, res.Error
}

func (s *CalendarCacheService) deleteKey(userID uint, key string) error {
	return s.db.
		Where("user_id = ? AND cache_key = ?", userID, key).
		Delete(&models.CalendarCache{}).Error
}
