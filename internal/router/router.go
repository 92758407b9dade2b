package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pemiyos/internal/handlers"
	"pemiyos/internal/middleware"
	"pemiyos/internal/services"
)

// Services bundles what the routes need.
type Services struct {
	DB    *gorm.DB
	Docs  *services.DocumentService
	CRUD  *services.CRUDService
	Stats *services.StatisticsService
	Auth  *services.AuthService
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	// Handlers
	healthHandler := handlers.NewHealthHandler(svc.DB)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	crudHandler := handlers.NewCRUDHandler(svc.Docs, svc.CRUD)
	statisticHandler := handlers.NewStatisticHandler(svc.Stats)

	// Public Routes
	r.GET("/", handlers.Index)
	r.GET("/health", healthHandler.Health)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/profile", middleware.AuthRequired(svc.Auth), authHandler.Profile)
		auth.POST("/logout", middleware.AuthRequired(svc.Auth), authHandler.Logout)
	}

	statistic := r.Group("/api/statistic")
	statistic.Use(middleware.AuthRequired(svc.Auth))
	{
		statistic.GET("/votes/:position_id", statisticHandler.Votes)
	}

	// Collection Routes
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(svc.Auth))
	{
		api.DELETE("/flush", middleware.AdminRequired(), crudHandler.Flush)
		api.GET("/:collection", crudHandler.List)
		api.POST("/:collection/bulk", middleware.AdminRequired(), crudHandler.BulkCreate)
		api.GET("/:collection/:id", crudHandler.Get)
		api.POST("/:collection", crudHandler.Create)
		api.PUT("/:collection/:id", middleware.AdminRequired(), crudHandler.Update)
		api.DELETE("/:collection/:id", middleware.AdminRequired(), crudHandler.SoftDelete)
		api.DELETE("/:collection/:id/hard", middleware.AdminRequired(), crudHandler.HardDelete)
	}
}
