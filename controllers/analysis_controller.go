package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kissthedata/floweat/models"
	"github.com/kissthedata/floweat/services"
	"github.com/kissthedata/floweat/utils"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	Svc *services.AnalysisService
}

func NewAnalysisController(svc *services.AnalysisService) *AnalysisController {
	return &AnalysisController{Svc: svc}
}

type startAnalysisInput struct {
	Goal        models.EatingGoal `json:"goal" binding:"required"`
	ImageURL    string            `json:"image_url"`
	ImageBase64 string            `json:"image_base64"`
}

// StartAnalysis kicks off the detection pass. When the client sends raw
// image bytes the photo is uploaded first and the public URL becomes the
// record's image ref, while detection runs on the original payload.
func (h *AnalysisController) StartAnalysis(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input startAnalysisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	imageURL := input.ImageURL
	imagePayload := ""
	if input.ImageBase64 != "" {
		url, err := utils.UploadMealImage(input.ImageBase64, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed", "detail": err.Error()})
			return
		}
		imageURL = url
		imagePayload = input.ImageBase64
	}

	view, err := h.Svc.StartSession(userID, input.Goal, imageURL, imagePayload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *AnalysisController) GetSession(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	view, err := h.Svc.Session(userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type addFoodInput struct {
	Name     string              `json:"name" binding:"required"`
	Category models.FoodCategory `json:"category"`
}

func (h *AnalysisController) AddFood(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	var input addFoodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.Svc.AddFood(userID, c.Param("id"), input.Name, input.Category)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type renameFoodInput struct {
	Name string `json:"name" binding:"required"`
}

func (h *AnalysisController) RenameFood(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid food index"})
		return
	}
	var input renameFoodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.Svc.RenameFood(userID, c.Param("id"), index, input.Name)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AnalysisController) DeleteFood(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid food index"})
		return
	}
	view, err := h.Svc.DeleteFood(userID, c.Param("id"), index)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AnalysisController) Confirm(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	view, err := h.Svc.Confirm(userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type saveInput struct {
	Slot models.MealSlot `json:"slot" binding:"required"`
}

func (h *AnalysisController) Save(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var input saveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := h.Svc.Save(user.ID, c.Param("id"), input.Slot, user.Location())
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *AnalysisController) Abandon(c *gin.Context) {
	userID, _ := userIDFromCtx(c)
	if err := h.Svc.Abandon(userID, c.Param("id")); err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrWrongPhase),
		errors.Is(err, services.ErrBusy),
		errors.Is(err, services.ErrAlreadySaved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrLastFood),
		errors.Is(err, services.ErrEmptyName),
		errors.Is(err, services.ErrInvalidIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
