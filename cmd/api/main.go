package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/wikatalk/wikatalk-api/internal/config"
	"github.com/wikatalk/wikatalk-api/internal/domain/ranking"
	"github.com/wikatalk/wikatalk-api/internal/handler"
	"github.com/wikatalk/wikatalk-api/internal/middleware"
	pgRepo "github.com/wikatalk/wikatalk-api/internal/repository/postgres"
	redisRepo "github.com/wikatalk/wikatalk-api/internal/repository/redis"
	"github.com/wikatalk/wikatalk-api/internal/service"
	"github.com/wikatalk/wikatalk-api/pkg/auth"
	"github.com/wikatalk/wikatalk-api/pkg/database"
	"github.com/wikatalk/wikatalk-api/pkg/metrics"
)

func main() {
	// .env нужен только для локальной разработки
	if err := godotenv.Load(); err != nil {
		log.Printf("Файл .env не загружен (%v), используются переменные окружения", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), database.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.Printf("Failed to get sql.DB: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis опционален: без него кеш рейтингов живет в памяти, а лимитер выключен
	var redisClient redis.UniversalClient
	var cacheRepo *redisRepo.CacheRepo
	if cfg.Redis.Enabled {
		redisClient, err = database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		cacheRepo, err = redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Printf("Failed to create cache repository: %v", err)
			os.Exit(1)
		}
	}

	recorder := metrics.New()

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)
	rankingRepo := pgRepo.NewRankingRepo(db)

	// Кеши рейтингов
	var boardCache service.RankCache[ranking.Board]
	var userRankCache service.RankCache[*ranking.UserRank]
	if cfg.Ranking.CacheBackend == "redis" {
		if boardCache, err = service.NewRedisCache[ranking.Board](cacheRepo, cfg.Ranking.CacheTTL); err != nil {
			log.Printf("Failed to create Redis rank cache: %v", err)
			os.Exit(1)
		}
		if userRankCache, err = service.NewRedisCache[*ranking.UserRank](cacheRepo, cfg.Ranking.CacheTTL); err != nil {
			log.Printf("Failed to create Redis rank cache: %v", err)
			os.Exit(1)
		}
	} else {
		boardCache = service.NewMemoryCache[ranking.Board](cfg.Ranking.CacheTTL, nil)
		userRankCache = service.NewMemoryCache[*ranking.UserRank](cfg.Ranking.CacheTTL, nil)
	}
	log.Printf("Кеш рейтингов: backend=%s ttl=%s", cfg.Ranking.CacheBackend, cfg.Ranking.CacheTTL)

	// Сервисы
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cfg.JWT.Issuer)
	if err != nil {
		log.Printf("Failed to create JWT service: %v", err)
		os.Exit(1)
	}
	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Printf("Failed to create AuthService: %v", err)
		os.Exit(1)
	}
	progressService, err := service.NewProgressService(progressRepo, cfg.Progress.ResetCost)
	if err != nil {
		log.Printf("Failed to create ProgressService: %v", err)
		os.Exit(1)
	}
	rankingService, err := service.NewRankingService(rankingRepo, boardCache, userRankCache, service.RankingServiceConfig{
		DefaultLimit: cfg.Ranking.DefaultLimit,
		MaxLimit:     cfg.Ranking.MaxLimit,
	}, recorder)
	if err != nil {
		log.Printf("Failed to create RankingService: %v", err)
		os.Exit(1)
	}

	healthChecks := map[string]handler.HealthCheck{
		"postgres": sqlDB.PingContext,
	}
	if cacheRepo != nil {
		healthChecks["redis"] = cacheRepo.Ping
	}

	router := setupRouter(routerDeps{
		isProduction:    os.Getenv("GIN_MODE") == "release",
		allowedOrigins:  cfg.CORS.AllowedOrigins,
		authMiddleware:  middleware.NewAuthMiddleware(jwtService),
		rateLimiter:     middleware.NewRateLimiter(redisClient),
		recorder:        recorder,
		authHandler:     handler.NewAuthHandler(authService),
		progressHandler: handler.NewProgressHandler(progressService),
		rankingHandler:  handler.NewRankingHandler(rankingService),
		healthHandler:   handler.NewHealthHandler(healthChecks),
	})

	// HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		return
	}

	log.Println("Server exited properly")
}
