// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"studentrecords/internal/domain/auth"
	"studentrecords/internal/domain/record"
	"studentrecords/internal/infrastructure/http/v1/handlers"
	"studentrecords/internal/infrastructure/http/v1/middleware"
	"studentrecords/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Records serves the record endpoints
	Records *record.Service

	// Auth serves the auth endpoints and validates bearer tokens
	Auth *auth.Service

	// Store is pinged by /health/ready
	Store handlers.Pinger

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: Recovery sits inside ErrorHandler so a recovered
	// panic is still rendered as JSON and logged with request ids.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Store)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.Auth)
	requireAuth := middleware.Auth(cfg.Auth.JWT())

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
		}

		protected := v1.Group("")
		protected.Use(requireAuth)

		RegisterCRUDRoutes(protected.Group("/records"), handlers.NewRecordHandler(base, cfg.Records))
	}

	return router
}
