package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// One saved diary entry: a meal photo, its analyzed foods and the
// recommended eating order. CreatedAt is the authoritative ordering key.
type MealRecord struct {
	gorm.Model
	UserID   uint     `gorm:"index;not null" json:"user_id"`
	Slot     MealSlot `gorm:"size:16;not null" json:"slot"`
	ImageURL string   `json:"image_url"`

	// Aggregate nutrition, summed over Foods once at analysis time and
	// stored verbatim. Never re-derived from the rows afterwards.
	TotalCarbs   float64 `json:"total_carbs"`
	TotalProtein float64 `json:"total_protein"`
	TotalFat     float64 `json:"total_fat"`

	Goal      EatingGoal `gorm:"size:16" json:"goal"`
	GoalLabel string     `gorm:"size:64" json:"goal_label"`
	Reason    string     `gorm:"type:text" json:"reason"`

	// Optional AI nutrition commentary from the second analysis pass.
	NutritionAnalysis string `gorm:"type:text" json:"nutrition_analysis,omitempty"`

	// Optional post-hoc rating, see UserFeedback. Null until the user rates.
	Feedback datatypes.JSON `json:"feedback,omitempty"`

	Foods []FoodEntry  `gorm:"constraint:OnDelete:CASCADE" json:"foods"`
	Steps []EatingStep `gorm:"constraint:OnDelete:CASCADE" json:"steps"`
}

// FoodEntry is one analyzed food on a meal record. Rows only exist once the
// parent record is persisted; before that foods live in the analysis session.
type FoodEntry struct {
	gorm.Model
	MealRecordID uint         `gorm:"index;not null" json:"meal_record_id"`
	Name         string       `gorm:"not null" json:"name"`
	Category     FoodCategory `gorm:"size:16" json:"category"`
	Benefits     string       `gorm:"type:text" json:"benefits,omitempty"`

	Carbs   float64 `json:"carbs"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`

	// Optional warnings, see FoodWarnings. All three axes independent.
	Warnings datatypes.JSON `json:"warnings,omitempty"`
}

// EatingStep is one step of the recommended serving sequence. OrderNum is
// 1-based and dense; values are never renumbered after creation.
type EatingStep struct {
	gorm.Model
	MealRecordID uint   `gorm:"index;not null" json:"meal_record_id"`
	OrderNum     int    `gorm:"not null" json:"order"`
	FoodName     string `json:"food_name"`
	Description  string `gorm:"type:text" json:"description"`
}

// FeedbackRating is one axis of the post-meal rating.
type FeedbackRating string

const (
	RatingGood   FeedbackRating = "good"
	RatingNormal FeedbackRating = "normal"
	RatingBad    FeedbackRating = "bad"
)

func (r FeedbackRating) Valid() bool {
	switch r {
	case RatingGood, RatingNormal, RatingBad:
		return true
	}
	return false
}

// UserFeedback is the JSON shape stored in MealRecord.Feedback.
type UserFeedback struct {
	Digestion FeedbackRating `json:"digestion"`
	Satiety   FeedbackRating `json:"satiety"`
	Energy    FeedbackRating `json:"energy"`
}

// FoodWarnings is the JSON shape stored in FoodEntry.Warnings.
type FoodWarnings struct {
	Timing          string `json:"timing,omitempty"`
	Overconsumption string `json:"overconsumption,omitempty"`
	General         string `json:"general,omitempty"`
}
