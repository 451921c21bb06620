package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dayproof/dayproof/config"
	"github.com/dayproof/dayproof/controllers"
	"github.com/dayproof/dayproof/engine"
	"github.com/dayproof/dayproof/middleware"
	"github.com/dayproof/dayproof/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, eng *engine.Engine) *gin.Engine {
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
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

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

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	uploadController := controllers.NewUploadController(eng)
	restDayController := controllers.NewRestDayController(eng)
	dashboardController := controllers.NewDashboardController(eng)
	adminController := controllers.NewAdminController(eng)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/uploads", uploadController.CreateUpload)
	protected.GET("/uploads", uploadController.ListMyUploads)
	protected.POST("/rest-days", restDayController.UseRestDay)
	protected.GET("/dashboard", dashboardController.GetDashboard)
	protected.GET("/challenges/active", dashboardController.GetActiveChallenge)
	protected.GET("/trophies", dashboardController.ListTrophyHistory)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/uploads/pending", adminController.ListPendingUploads)
	admin.GET("/uploads/:id", adminController.GetUpload)
	admin.POST("/uploads/:id/verify", adminController.VerifyUpload)
	admin.POST("/users/:id/trophies", adminController.SetTrophies)
	admin.POST("/users/:id/streak", adminController.OverrideStreak)
	admin.POST("/rollup", adminController.RunRollup)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
