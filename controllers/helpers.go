package controllers

import (
	"github.com/kissthedata/floweat/config"
	"github.com/kissthedata/floweat/models"

	"github.com/gin-gonic/gin"
)

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// currentUser loads the authenticated user; needed wherever the user's
// timezone decides calendar-day grouping.
func currentUser(c *gin.Context) (*models.User, bool) {
	id, ok := userIDFromCtx(c)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		return nil, false
	}
	return &user, true
}
