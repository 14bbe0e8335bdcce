package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/utils"

	"gorm.io/gorm"
)

// DiaryService owns diary persistence: one meal record plus its food and
// step rows. It is the source of truth the calendar cache sits in front of.
type DiaryService struct {
	db *gorm.DB
}

func NewDiaryService(db *gorm.DB) *DiaryService {
	return &DiaryService{db: db}
}

// withAssociations eagerly joins foods and steps; steps always come back
// sorted by serving order.
func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Foods").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		})
}

// Save persists the record and its rows atomically: if any insert fails,
// nothing remains visible.
func (s *DiaryService) Save(record *models.MealRecord, foods []models.FoodEntry, steps []models.EatingStep) (*models.MealRecord, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		for i := range foods {
			foods[i].MealRecordID = record.ID
		}
		if len(foods) > 0 {
			if err := tx.Create(&foods).Error; err != nil {
				return err
			}
		}
		for i := range steps {
			steps[i].MealRecordID = record.ID
		}
		if len(steps) > 0 {
			if err := tx.Create(&steps).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save diary entry: %w", err)
	}
	return s.Get(record.UserID, record.ID)
}

func (s *DiaryService) Get(userID, recordID uint) (*models.MealRecord, error) {
	var record models.MealRecord
	err := withAssociations(s.db).
		Where("id = ? AND user_id = ?", recordID, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByDateRange returns records with created_at in [from, to), newest
// first.
func (s *DiaryService) ListByDateRange(userID uint, from, to time.Time) ([]models.MealRecord, error) {
	var records []models.MealRecord
	err := withAssociations(s.db).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// ListByDay filters by the calendar day in loc, not the UTC day.
func (s *DiaryService) ListByDay(userID uint, day time.Time, loc *time.Location) ([]models.MealRecord, error) {
	start, end := utils.DayWindow(day, loc)
	return s.ListByDateRange(userID, start, end)
}

func (s *DiaryService) ListRecent(userID uint, limit int) ([]models.MealRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	var records []models.MealRecord
	err := withAssociations(s.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// DiaryUpdate lists the fields a saved record accepts after the fact.
type DiaryUpdate struct {
	Slot     *models.MealSlot
	ImageURL *string
	Feedback *models.UserFeedback
}

func (s *DiaryService) Update(userID, recordID uint, upd DiaryUpdate) (*models.MealRecord, error) {
	var record models.MealRecord
	if err := s.db.
		Where("id = ? AND user_id = ?", recordID, userID).
		First(&record).Error; err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if upd.Slot != nil {
		if !upd.Slot.Valid() {
			return nil, fmt.Errorf("invalid meal slot %q", *upd.Slot)
		}
		fields["slot"] = *upd.Slot
	}
	if upd.ImageURL != nil {
		fields["image_url"] = *upd.ImageURL
	}
	if upd.Feedback != nil {
		b, err := json.Marshal(upd.Feedback)
		if err != nil {
			return nil, err
		}
		fields["feedback"] = b
	}
	if len(fields) > 0 {
		if err := s.db.Model(&record).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(userID, recordID)
}

// Delete removes the record and cascades to its foods and steps.
func (s *DiaryService) Delete(userID, recordID uint) (*models.MealRecord, error) {
	record, err := s.Get(userID, recordID)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("meal_record_id = ?", record.ID).Delete(&models.FoodEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("meal_record_id = ?", record.ID).Delete(&models.EatingStep{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.MealRecord{}, record.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete diary entry: %w", err)
	}
	return record, nil
}
