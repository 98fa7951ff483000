package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/satishkumarchandala/clean-India/internal/config"
	"github.com/satishkumarchandala/clean-India/internal/delivery/http"
	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/logging"
	"github.com/satishkumarchandala/clean-India/internal/metrics"
	"github.com/satishkumarchandala/clean-India/internal/priority"
	"github.com/satishkumarchandala/clean-India/internal/repository/postgres"
	"github.com/satishkumarchandala/clean-India/internal/service"
)

func main() {
	// Configuration
	cfg, dotenv := config.Load()

	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Invalid logging configuration: %v", err)
	}
	if !dotenv {
		log.Info("No .env file found, using system environment")
	}

	policy, err := cfg.Policy()
	if err != nil {
		log.Fatalf("Could not load priority policy: %v", err)
	}
	engine, err := priority.NewEngine(policy)
	if err != nil {
		log.Fatalf("Could not build priority engine: %v", err)
	}

	// Database connection
	repo, closeRepo := openRepository(cfg, log)
	defer closeRepo()

	// Dependency Injection: Services
	m := metrics.New()
	issueSvc := service.NewIssueService(repo, engine, log, service.WithMetrics(m))

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Civic Issues API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		Output: log.Writer(),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization," + http.HeaderUserID + "," + http.HeaderUserRole,
	}))

	// Routes
	http.SetupRoutes(app, issueSvc, m)

	// Graceful shutdown
	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	log.Info("Server exited gracefully")
}

// openRepository connects to PostgreSQL and applies the schema. Without a
// reachable database it falls back to the in-memory store.
func openRepository(cfg *config.Config, log *logrus.Logger) (domain.IssueRepository, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, running with in-memory data only")
		return postgres.NewMockRepository(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err == nil {
		err = pool.Ping(ctx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		if cfg.IsProduction() {
			log.Fatalf("Could not connect to database: %v", err)
		}
		log.Warnf("Could not connect to database: %v", err)
		log.Warn("Running with in-memory data only")
		return postgres.NewMockRepository(), func() {}
	}

	repo := postgres.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		log.Fatalf("Could not apply schema: %v", err)
	}
	log.Info("Connected to PostgreSQL")
	return repo, pool.Close
}
