package services

import (
	"errors"

	"github.com/kissthedata/floweat/config"
	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/utils"
)

func RegisterUser(email, password, fullName, timezone string) error {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		Email:    email,
		Password: hashedPassword,
		FullName: fullName,
	}
	if timezone != "" {
		user.Timezone = timezone
	}

	return config.DB.Create(&user).Error
}

func AuthenticateUser(email, password string) (string, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return "", errors.New("user not found")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", errors.New("incorrect password")
	}

	return utils.GenerateJWT(user.ID, user.Email)
}
