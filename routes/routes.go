package routes

import (
	"os"

	"github.com/kissthedata/floweat/config"
	"github.com/kissthedata/floweat/controllers"
	"github.com/kissthedata/floweat/middlewares"
	"github.com/kissthedata/floweat/services"
	"github.com/kissthedata/floweat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	diarySvc := services.NewDiaryService(config.DB)
	cacheSvc := services.NewCalendarCacheService(config.DB)
	calendarSvc := services.NewCalendarService(diarySvc, cacheSvc)
	hub := services.NewRealtimeHub()

	inference := services.NewInferenceService()
	var detector services.FoodDetector = inference
	if os.Getenv("DETECTION_PROVIDER") == "rekognition" {
		rek, err := services.NewRekognitionService()
		if err != nil {
			utils.L().Warn("rekognition unavailable, falling back to inference gateway", zap.Error(err))
		} else {
			detector = rek
		}
	}
	analysisSvc := services.NewAnalysisService(detector, inference, diarySvc, cacheSvc, hub)

	services.StartCacheJanitor(cacheSvc)

	analysisCtl := controllers.NewAnalysisController(analysisSvc)
	diaryCtl := controllers.NewDiaryController(diarySvc, cacheSvc, hub)
	calendarCtl := controllers.NewCalendarController(calendarSvc)
	realtimeCtl := controllers.NewRealtimeController(hub)

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		api.POST("/images", controllers.UploadImage)

		analysis := api.Group("/analysis/sessions")
		{
			analysis.POST("", analysisCtl.StartAnalysis)
			analysis.GET("/:id", analysisCtl.GetSession)
			analysis.POST("/:id/foods", analysisCtl.AddFood)
			analysis.PUT("/:id/foods/:index", analysisCtl.RenameFood)
			analysis.DELETE("/:id/foods/:index", analysisCtl.DeleteFood)
			analysis.POST("/:id/confirm", analysisCtl.Confirm)
			analysis.POST("/:id/save", analysisCtl.Save)
			analysis.DELETE("/:id", analysisCtl.Abandon)
		}

		diary := api.Group("/diary")
		{
			diary.GET("/recent", diaryCtl.ListRecent)
			diary.GET("/day", diaryCtl.GetDay)
			diary.GET("/:id", diaryCtl.Get)
			diary.PUT("/:id", diaryCtl.Update)
			diary.DELETE("/:id", diaryCtl.Delete)
		}

		calendar := api.Group("/calendar")
		{
			calendar.GET("/:year/:month", calendarCtl.MonthOverview)
			calendar.GET("/:year/:month/stats", calendarCtl.MonthStats)
			calendar.GET("/day/:date", calendarCtl.DayDetail)
		}

		api.GET("/ws/diary", realtimeCtl.DiaryEventsWS)
	}

	return r
}
