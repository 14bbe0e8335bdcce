package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/services"
	"github.com/kissthedata/floweat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CalendarController struct {
	Svc *services.CalendarService
}

func NewCalendarController(svc *services.CalendarService) *CalendarController {
	return &CalendarController{Svc: svc}
}

func parseYearMonth(c *gin.Context) (int, time.Month, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return 0, 0, false
	}
	return year, time.Month(month), true
}

// MonthOverview answers "which days in this month have meals" as a
// day -> slots map. Store failures degrade to an empty overview.
func (h *CalendarController) MonthOverview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}
	overview, err := h.Svc.MonthOverview(user.ID, year, month, user.Location())
	if err != nil {
		utils.L().Warn("month overview read failed", zap.Error(err))
		overview = map[string][]models.MealSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "month": int(month), "days": overview})
}

func (h *CalendarController) MonthStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}
	stats, err := h.Svc.MonthlyStats(user.ID, year, month, user.Location())
	if err != nil {
		utils.L().Warn("month stats read failed", zap.Error(err))
		stats = &services.MonthlyStats{MealCounts: map[models.MealSlot]int{}}
	}
	c.JSON(http.StatusOK, stats)
}

// DayDetail returns the full records for a day grouped by slot; multiple
// entries per slot come back as-is.
func (h *CalendarController) DayDetail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	loc := user.Location()
	day, err := time.ParseInLocation("2006-01-02", c.Param("date"), loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	detail, err := h.Svc.DayDetail(user.ID, day, loc)
	if err != nil {
		utils.L().Warn("day detail read failed", zap.Error(err))
		detail = map[models.MealSlot][]models.MealRecord{}
	}
	c.JSON(http.StatusOK, detail)
}
