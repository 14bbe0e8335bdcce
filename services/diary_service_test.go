package services

import (
	"testing"
	"time"

	"github.com/kissthedata/floweat/models"
)

func TestSaveReloadsStepsSortedDense(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))

	record := &models.MealRecord{UserID: 1, Slot: models.SlotLunch, Goal: models.GoalDigestion}
	foods := []models.FoodEntry{{Name: "salad", Category: models.CategoryVegetable}}
	// insertion order deliberately scrambled
	steps := []models.EatingStep{
		{OrderNum: 3, FoodName: "rice", Description: "last"},
		{OrderNum: 1, FoodName: "salad", Description: "first"},
		{OrderNum: 2, FoodName: "chicken", Description: "second"},
	}

	saved, err := diary.Save(record, foods, steps)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(saved.Steps))
	}
	for i, st := range saved.Steps {
		if st.OrderNum != i+1 {
			t.Fatalf("step %d has order %d, want %d", i, st.OrderNum, i+1)
		}
	}
	if saved.Steps[0].FoodName != "salad" {
		t.Fatalf("expected salad first, got %s", saved.Steps[0].FoodName)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	db := newTestDB(t)
	diary := NewDiaryService(db)

	existing := seedRecord(t, diary, 1, models.SlotLunch, time.Now())

	// Force the food insert to fail with a primary-key conflict; the parent
	// record must not survive the rollback.
	record := &models.MealRecord{UserID: 1, Slot: models.SlotDinner, Goal: models.GoalEnergy}
	conflicting := models.FoodEntry{Name: "soup", Category: models.CategoryProtein}
	conflicting.ID = existing.Foods[0].ID

	if _, err := diary.Save(record, []models.FoodEntry{conflicting}, nil); err == nil {
		t.Fatal("expected save to fail")
	}

	var count int64
	db.Model(&models.MealRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected only the seeded record, got %d", count)
	}
}

func TestDeleteCascadesToFoodsAndSteps(t *testing.T) {
	db := newTestDB(t)
	diary := NewDiaryService(db)

	saved := seedRecord(t, diary, 1, models.SlotBreakfast, time.Now())
	if _, err := diary.Delete(1, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var foods, steps int64
	db.Model(&models.FoodEntry{}).Where("meal_record_id = ?", saved.ID).Count(&foods)
	db.Model(&models.EatingStep{}).Where("meal_record_id = ?", saved.ID).Count(&steps)
	if foods != 0 || steps != 0 {
		t.Fatalf("orphan rows remain: foods=%d steps=%d", foods, steps)
	}
	if _, err := diary.Get(1, saved.ID); err == nil {
		t.Fatal("expected record to be gone")
	}
}

func TestListByDayUsesLocalCalendarDay(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))
	seoul := mustLocation(t, "Asia/Seoul")

	// 08:00 on March 16 in Seoul is still March 15 in UTC.
	createdAt := time.Date(2024, 3, 16, 8, 0, 0, 0, seoul)
	seedRecord(t, diary, 1, models.SlotBreakfast, createdAt)

	day16 := time.Date(2024, 3, 16, 0, 0, 0, 0, seoul)
	records, err := diary.ListByDay(1, day16, seoul)
	if err != nil {
		t.Fatalf("list by day: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected record under local March 16, got %d records", len(records))
	}

	day15 := time.Date(2024, 3, 15, 0, 0, 0, 0, seoul)
	records, err = diary.ListByDay(1, day15, seoul)
	if err != nil {
		t.Fatalf("list by day: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("record leaked into the UTC day, got %d records", len(records))
	}
}

func TestListByDateRangeNewestFirst(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seedRecord(t, diary, 1, models.SlotBreakfast, base)
	seedRecord(t, diary, 1, models.SlotLunch, base.Add(4*time.Hour))
	seedRecord(t, diary, 1, models.SlotDinner, base.Add(8*time.Hour))

	records, err := diary.ListByDateRange(1, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Slot != models.SlotDinner || records[2].Slot != models.SlotBreakfast {
		t.Fatalf("unexpected ordering: %v %v %v", records[0].Slot, records[1].Slot, records[2].Slot)
	}

	// end bound is exclusive
	records, err = diary.ListByDateRange(1, base, base.Add(8*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the dinner record excluded, got %d records", len(records))
	}
}

func TestListRecentCapsResults(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		seedRecord(t, diary, 1, models.SlotLunch, base.Add(time.Duration(i)*time.Hour))
	}

	records, err := diary.ListRecent(1, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if !records[0].CreatedAt.After(records[2].CreatedAt) {
		t.Fatal("expected newest first")
	}

	// zero limit falls back to the default of 5
	records, err = diary.ListRecent(1, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected default cap of 5, got %d", len(records))
	}
}

func TestUpdatePatchesFeedback(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))
	saved := seedRecord(t, diary, 1, models.SlotDinner, time.Now())

	fb := &models.UserFeedback{
		Digestion: models.RatingGood,
		Satiety:   models.RatingNormal,
		Energy:    models.RatingBad,
	}
	updated, err := diary.Update(1, saved.ID, DiaryUpdate{Feedback: fb})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Feedback) == 0 {
		t.Fatal("feedback not stored")
	}

	slot := models.MealSlot("brunch")
	if _, err := diary.Update(1, saved.ID, DiaryUpdate{Slot: &slot}); err == nil {
		t.Fatal("expected invalid slot to be rejected")
	}
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	diary := NewDiaryService(newTestDB(t))
	saved := seedRecord(t, diary, 1, models.SlotLunch, time.Now())

	if _, err := diary.Get(2, saved.ID); err == nil {
		t.Fatal("expected other user's record to be invisible")
	}
	if _, err := diary.Delete(2, saved.ID); err == nil {
		t.Fatal("expected other user's delete to fail")
	}
}
