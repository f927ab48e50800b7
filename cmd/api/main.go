package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"kisah-comments/internal/config"
	"kisah-comments/internal/handler"
	"kisah-comments/internal/middleware"
	"kisah-comments/internal/pkg/i18n"
	"kisah-comments/internal/pkg/markdown"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	slog.SetDefault(config.NewLogger(cfg))

	if err := i18n.LoadDefault(); err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	var (
		repos  *repository.Repositories
		checks []handler.HealthCheck
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		slog.Warn("using in-memory comment store, data is lost on restart")
		repos, _, _ = repository.NewMemoryRepositories()
	default:
		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		applied, err := repository.ApplyMigrations(context.Background(), db.DB)
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		if len(applied) > 0 {
			slog.Info("applied migrations", "versions", applied)
		}

		repos = repository.NewRepositories(db)
		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	redis, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redis != nil {
		defer redis.Close()
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redis.Ping(ctx).Err()
		}})
	} else {
		slog.Info("REDIS_URL not set, comment list cache disabled")
	}

	minioClient, err := config.NewMinIOClient(cfg)
	if err != nil {
		slog.Warn("failed to connect to MinIO, thread archiving disabled", "error", err)
		minioClient = nil
	}

	renderer, err := markdown.NewRenderer(markdown.DefaultCacheSize)
	if err != nil {
		log.Fatalf("Failed to create markdown renderer: %v", err)
	}

	services := service.NewServices(repos, redis, minioClient, renderer, cfg)
	services.Dispatcher.Start()
	handlers := handler.NewHandlers(services, checks...)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Accept-Language, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	limiter := middleware.NewWriteLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst)
	handler.SetupRoutes(app, handlers, services.Auth, limiter)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := services.Dispatcher.Shutdown(ctx); err != nil {
		slog.Error("notification queue not drained", "error", err)
	}
}
