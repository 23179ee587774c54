package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/handlers"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	EntityHandler       *handlers.EntityHandler
	EntityDataHandler   *handlers.EntityDataHandler
	TemplateHandler     *handlers.TemplateHandler
	FillHandler         *handlers.FillHandler
	HealthcheckHandler  *handlers.HealthcheckHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.Me)
	// Entities
	protected.POST("/entities", cfg.EntityHandler.Create)
	protected.GET("/entities", cfg.EntityHandler.List)
	protected.GET("/entities/:entity_id", cfg.EntityHandler.Get)
	protected.PUT("/entities/:entity_id", cfg.EntityHandler.Update)
	protected.DELETE("/entities/:entity_id", cfg.EntityHandler.Delete)
	// Entity data (canonical record + document ingestion)
	protected.GET("/entities/:entity_id/data", cfg.EntityDataHandler.GetRecord)
	protected.POST("/entities/:entity_id/data", cfg.RateLimitMiddleware.Limit(), cfg.EntityDataHandler.UploadDocuments)
	// Templates
	protected.POST("/templates", cfg.TemplateHandler.Upload)
	protected.GET("/templates", cfg.TemplateHandler.List)
	protected.GET("/templates/:template_id", cfg.TemplateHandler.Get)
	protected.DELETE("/templates/:template_id", cfg.TemplateHandler.Delete)
	protected.POST("/templates/:template_id/fill", cfg.RateLimitMiddleware.Limit(), cfg.FillHandler.Fill)

	return router
}
