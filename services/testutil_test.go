package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kissthedata/floweat/config"
	"github.com/kissthedata/floweat/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "floweat.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func seedRecord(t *testing.T, diary *DiaryService, userID uint, slot models.MealSlot, createdAt time.Time) *models.MealRecord {
	t.Helper()
	record := &models.MealRecord{
		UserID:       userID,
		Slot:         slot,
		TotalCarbs:   68,
		TotalProtein: 6,
		TotalFat:     1,
		Goal:         models.GoalSatiety,
		GoalLabel:    models.GoalSatiety.Label(),
		Reason:       "fiber first keeps blood sugar steady",
	}
	record.CreatedAt = createdAt
	foods := []models.FoodEntry{
		{Name: "rice", Category: models.CategoryCarbohydrate, Carbs: 68, Protein: 6, Fat: 1},
	}
	steps := []models.EatingStep{
		{OrderNum: 1, FoodName: "rice", Description: "eat last"},
	}
	saved, err := diary.Save(record, foods, steps)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return saved
}
