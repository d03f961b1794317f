package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/config"
	"github.com/Monark-Arkmon/FitCheck/controllers"
	"github.com/Monark-Arkmon/FitCheck/middleware"
	"github.com/Monark-Arkmon/FitCheck/services"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Request log goes to its own rolling file so it never drowns the app log
	gl := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	r.Use(utils.Ginzap(gl))
	r.Use(utils.RecoveryWithZap(gl))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/uploads", cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	feed := services.NewDBFeedPublisher(db)
	notifier := services.NewDBNotifier(db)
	checkInSvc := services.NewCheckInService(db, feed, notifier)

	authController := controllers.NewAuthController(db)
	checkInController := controllers.NewCheckInController(db, checkInSvc)
	socialController := controllers.NewSocialController(db, notifier)
	notificationController := controllers.NewNotificationController(db)
	statsController := controllers.NewStatsController(db)
	aiController := controllers.NewAIController(db, cfg)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public surface
	api.GET("/feed", socialController.ListFeed)
	api.GET("/users/trending", socialController.TrendingUsers)
	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/checkins", checkInController.ListUserCheckIns)
	api.GET("/checkins/:id/comments", socialController.ListComments)
	api.GET("/stats", statsController.GetStats)
	api.GET("/checkins/:id/stats", statsController.GetCheckInStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/users", authController.ListUsers)
	protected.POST("/checkins", checkInController.CreateCheckIn)
	protected.DELETE("/checkins/:id", checkInController.DeleteCheckIn)
	protected.GET("/users/me/checkins", checkInController.ListMyCheckIns)
	protected.GET("/streak/status", checkInController.StreakStatus)
	protected.POST("/upload", checkInController.UploadPhoto)
	protected.POST("/checkins/:id/like", socialController.ToggleLike)
	protected.POST("/checkins/:id/comments", socialController.CreateComment)
	protected.DELETE("/comments/:commentId", socialController.DeleteComment)
	protected.GET("/notifications", notificationController.List)
	protected.GET("/notifications/unread", notificationController.UnreadCount)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)
	protected.POST("/notifications/read-all", notificationController.MarkAllRead)
	protected.POST("/ai/chat", aiController.Chat)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
