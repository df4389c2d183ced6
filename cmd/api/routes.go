package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wikatalk/wikatalk-api/internal/handler"
	"github.com/wikatalk/wikatalk-api/internal/middleware"
	"github.com/wikatalk/wikatalk-api/pkg/metrics"
)

type routerDeps struct {
	isProduction   bool
	allowedOrigins []string

	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	recorder       *metrics.Recorder

	authHandler     *handler.AuthHandler
	progressHandler *handler.ProgressHandler
	rankingHandler  *handler.RankingHandler
	healthHandler   *handler.HealthHandler
}

func setupRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.Metrics(d.recorder))

	// Production: не доверять прокси-заголовкам; development: доверяем localhost
	trusted := []string{"127.0.0.1", "::1"}
	if d.isProduction {
		trusted = nil
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", d.healthHandler.Health)
	router.GET("/metrics", gin.WrapH(d.recorder.Handler()))

	requireAuth := d.authMiddleware.RequireAuth()

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(d.rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()))
		{
			authGroup.POST("/register", d.authHandler.Register)
			authGroup.POST("/login", d.authHandler.Login)
		}

		api.GET("/users/me", requireAuth, d.authHandler.Me)

		progress := api.Group("/progress", requireAuth)
		{
			progress.POST("/attempts", d.progressHandler.RecordAttempt)
			progress.GET("", d.progressHandler.ListProgress)
			progress.GET("/:quizId", d.progressHandler.GetProgress)
			progress.DELETE("/:quizId/attempts", d.progressHandler.ResetTimer)
		}

		rankings := api.Group("/rankings", requireAuth, d.rateLimiter.LimitByIP(middleware.RankingsRateLimitConfig()))
		{
			rankings.GET("", d.rankingHandler.GetRankings)
			rankings.GET("/export", d.rankingHandler.ExportRankings)
		}
	}

	return router
}
