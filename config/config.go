package config

import (
	"fmt"
	"os"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	if err := godotenv.Load(); err != nil {
		utils.L().Warn("no .env file found, using system env")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		utils.L().Fatal("failed to connect to database", zap.Error(err))
	}

	if err := Migrate(DB); err != nil {
		utils.L().Fatal("AutoMigrate failed", zap.Error(err))
	}
}

// Migrate is separate from InitDB so tests can run it against their own DB.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.MealRecord{},
		&models.FoodEntry{},
		&models.EatingStep{},
		&models.CalendarCache{},
	)
}
