package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medfield/fieldtrack-go/internal/auth"
	"github.com/medfield/fieldtrack-go/internal/config"
	"github.com/medfield/fieldtrack-go/internal/handler"
	"github.com/medfield/fieldtrack-go/internal/middleware"
	"github.com/medfield/fieldtrack-go/internal/service"
)

// SetupRouter builds the gin engine with all routes and middleware
func SetupRouter(cfg *config.Config, tracker *service.TrackerService) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Fieldtrack API is running",
		})
	})

	jwtService := auth.NewJWT([]byte(cfg.JWTSecret))

	sessionHandler := handler.NewSessionHandler(tracker)
	visitHandler := handler.NewVisitHandler(tracker)
	routeHandler := handler.NewRouteHandler(tracker)
	analyticsHandler := handler.NewAnalyticsHandler(tracker)

	api := r.Group("/api/v1")
	api.Use(auth.Middleware(jwtService))
	{
		sessions := api.Group("/sessions")
		{
			// Captures come from bot retries as well as humans
			sessions.POST("/location", middleware.RateLimit(30, time.Minute), sessionHandler.Capture)
			sessions.GET("/:rep_id/status", sessionHandler.Status)
			sessions.POST("/:rep_id/entries", sessionHandler.LogEntry)
			sessions.DELETE("/:rep_id", sessionHandler.Clear)
		}

		visits := api.Group("/visits")
		{
			visits.POST("", visitHandler.Record)
		}

		routes := api.Group("/routes")
		{
			routes.GET("/:rep_id", routeHandler.Blueprint)
			routes.GET("/:rep_id/history", routeHandler.History)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/:rep_id", analyticsHandler.Analytics)
		}
	}

	return r
}
