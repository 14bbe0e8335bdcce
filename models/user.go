package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	FullName string
	// Timezone decides which local calendar day a meal belongs to.
	Timezone string `gorm:"size:64;default:'Asia/Seoul'"`
}

// Location resolves the user's timezone, falling back to UTC when the
// stored name is missing or unknown.
func (u *User) Location() *time.Location {
	if u.Timezone != "" {
		if loc, err := time.LoadLocation(u.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}
