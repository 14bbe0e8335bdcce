package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/services"
	"github.com/kissthedata/floweat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DiaryController struct {
	Diary *services.DiaryService
	Cache *services.CalendarCacheService
	Hub   *services.RealtimeHub
}

func NewDiaryController(diary *services.DiaryService, cache *services.CalendarCacheService, hub *services.RealtimeHub) *DiaryController {
	return &DiaryController{Diary: diary, Cache: cache, Hub: hub}
}

// ListRecent returns the newest records. Read failures degrade to an empty
// list so a flaky store never blanks the page.
func (h *DiaryController) ListRecent(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	records, err := h.Diary.ListRecent(userID, limit)
	if err != nil {
		utils.L().Warn("recent diary read failed", zap.Error(err))
		records = []models.MealRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// GetDay returns the records for one local calendar day.
func (h *DiaryController) GetDay(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	loc := user.Location()
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	records, err := h.Diary.ListByDay(user.ID, day, loc)
	if err != nil {
		utils.L().Warn("day diary read failed", zap.Error(err))
		records = []models.MealRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *DiaryController) Get(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	record, err := h.Diary.Get(userID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

type diaryUpdateInput struct {
	Slot     *models.MealSlot     `json:"slot"`
	ImageURL *string              `json:"image_url"`
	Feedback *models.UserFeedback `json:"feedback"`
}

// Update patches slot, image ref or post-hoc feedback onto a saved record,
// then invalidates the owning month so cached snapshots refresh.
func (h *DiaryController) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	var input diaryUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Feedback != nil {
		if !input.Feedback.Digestion.Valid() || !input.Feedback.Satiety.Valid() || !input.Feedback.Energy.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "feedback ratings must be good, normal or bad"})
			return
		}
	}

	record, err := h.Diary.Update(user.ID, uint(id), services.DiaryUpdate{
		Slot:     input.Slot,
		ImageURL: input.ImageURL,
		Feedback: input.Feedback,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	lt := record.CreatedAt.In(user.Location())
	_ = h.Cache.Invalidate(user.ID, lt.Year(), lt.Month())
	c.JSON(http.StatusOK, record)
}

// Delete removes a record together with its foods and steps, invalidates
// the owning month and tells other tabs.
func (h *DiaryController) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	record, err := h.Diary.Delete(user.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	lt := record.CreatedAt.In(user.Location())
	_ = h.Cache.Invalidate(user.ID, lt.Year(), lt.Month())
	if h.Hub != nil {
		h.Hub.Broadcast(user.ID, map[string]any{
			"kind":  "diary.deleted",
			"id":    record.ID,
			"year":  lt.Year(),
			"month": int(lt.Month()),
		})
	}
	c.Status(http.StatusNoContent)
}
