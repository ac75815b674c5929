// Package api - Router setup
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aethra/fleetdesk/internal/auth"
	"github.com/aethra/fleetdesk/internal/config"
)

// SetupRouter configures all routes.
func SetupRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, console *ConsoleHandler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/api/health", handler.Health)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)

		protected := authGroup.Group("")
		protected.Use(handler.AuthMiddleware(), handler.RequireAuth())
		{
			protected.GET("/me", authHandler.GetMe)
			protected.POST("/change-password", authHandler.ChangePassword)
			protected.POST("/logout", authHandler.Logout)
		}
	}

	api := router.Group("/api")
	api.Use(handler.AuthMiddleware(), handler.RequireAuth())
	{
		api.GET("/:entity", handler.RequirePermission(auth.ActionView), handler.List)
		api.GET("/:entity/export", handler.RequirePermission(auth.ActionExport), handler.Export)
		api.GET("/:entity/:id", handler.RequirePermission(auth.ActionView), handler.Get)
		api.POST("/:entity", handler.RequirePermission(auth.ActionCreate), handler.Create)
		api.PUT("/:entity/:id", handler.RequirePermission(auth.ActionEdit), handler.Update)
		api.DELETE("/:entity/:id", handler.RequirePermission(auth.ActionDelete), handler.Delete)
		api.POST("/:entity/bulk-delete", handler.RequirePermission(auth.ActionDelete), handler.BulkDelete)
		api.POST("/:entity/:id/restore", handler.RequirePermission(auth.ActionEdit), handler.Restore)
		api.DELETE("/:entity/:id/permanent", handler.RequireAdmin(), handler.HardDelete)

		api.GET("/state/:name", handler.GetState)
		api.PUT("/state/:name", handler.PutState)
		api.DELETE("/state/:name", handler.DeleteState)
	}

	if console != nil {
		pages := router.Group("/console")
		pages.Use(handler.AuthMiddleware(), handler.RequireAuth())
		{
			pages.GET("/:entity", handler.RequirePermission(auth.ActionView), console.Page)
		}
	}

	return router
}
