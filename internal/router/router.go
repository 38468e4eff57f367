package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sneuz/internal/handler"
	"sneuz/internal/middleware"
	"sneuz/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	settingsHandler *handler.SettingsHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	authed.POST("/auth/refresh", authHandler.Refresh)
	authed.GET("/auth/me", authHandler.Me)

	sessions := authed.Group("/sessions")
	sessions.GET("", sessionHandler.List)
	sessions.GET("/open", sessionHandler.Open)
	sessions.GET("/stats", sessionHandler.Stats)
	sessions.POST("", sessionHandler.Create)
	sessions.PATCH("/:id", sessionHandler.Update)
	sessions.DELETE("/:id", sessionHandler.Delete)

	authed.GET("/settings", settingsHandler.GetSettings)
	authed.PUT("/settings", settingsHandler.UpdateSettings)
	authed.GET("/profile", settingsHandler.GetProfile)
	authed.PUT("/profile", settingsHandler.UpdateProfile)

	return engine
}
