package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fazamuttaqien/lendora/config"
	mysqldb "github.com/fazamuttaqien/lendora/infra/mysql"
	redisdb "github.com/fazamuttaqien/lendora/infra/redis"
	"github.com/fazamuttaqien/lendora/internal/model"
	"github.com/fazamuttaqien/lendora/pkg/cloudinary"
	"github.com/fazamuttaqien/lendora/pkg/ratelimiter"
	"github.com/fazamuttaqien/lendora/pkg/telemetry"
	"github.com/fazamuttaqien/lendora/presenter"
	"github.com/fazamuttaqien/lendora/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	tel, err := telemetry.New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
	}
	log := tel.Log

	if envErr != nil {
		log.Info("No .env file found, using system environment variables")
	}

	dbCfg, err := mysqldb.FromConfig(cfg)
	if err != nil {
		log.Fatal("Invalid database configuration", zap.Error(err))
	}

	db, err := mysqldb.ConnectWithRetry(ctx, dbCfg, cfg.DEVELOPMENT_MODE, 5, 3*time.Second)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	redisCtx, cancelRedis := context.WithTimeout(ctx, 30*time.Second)
	redisClient, err := redisdb.ConnectWithRetry(redisCtx, cfg, 2*time.Second)
	cancelRedis()
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		log.Info("Closing MySQL connection...")
		if err := mysqldb.Close(db); err != nil {
			log.Error("Error disconnecting from MySQL", zap.Error(err))
		} else {
			log.Info("Disconnected from MySQL.")
		}

		log.Info("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Error("Error disconnecting from Redis", zap.Error(err))
		} else {
			log.Info("Disconnected from Redis.")
		}

		log.Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during monitoring shutdown", zap.Error(err))
		} else {
			log.Info("Monitoring shutdown complete.")
		}
	}()

	if err := model.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migration completed")

	if err := mysqldb.Ping(ctx, db); err != nil {
		log.Fatal("Database ping failed", zap.Error(err))
	}

	cld, err := cloudinary.InitCloudinary(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Cloudinary", zap.Error(err))
	}

	store := session.New(session.Config{
		KeyLookup:      "cookie:lendora_sid",
		Expiration:     cfg.JWT_TTL,
		CookieHTTPOnly: true,
		CookieSecure:   !cfg.DEVELOPMENT_MODE,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})

	p, err := presenter.NewPresenter(db, redisClient, cld, store, tel, cfg)
	if err != nil {
		log.Fatal("Failed to build presenter", zap.Error(err))
	}

	if err := SeedCatalog(ctx, p.CatalogService, cfg.CATALOG_FILE, log); err != nil {
		log.Fatal("Failed to seed catalog", zap.Error(err))
	}
	if err := SeedAdmin(ctx, p.CustomerRepository, cfg.ADMIN_EMAIL, cfg.ADMIN_PASSWORD, log); err != nil {
		log.Fatal("Failed to seed admin user", zap.Error(err))
	}

	limiter, err := ratelimiter.NewRateLimiter(redisClient, cfg.RATE_LIMIT_RPS, cfg.RATE_LIMIT_BURST, cfg.RATE_LIMIT_TTL, log)
	if err != nil {
		log.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	app := router.NewRouter(p, db, tel, cfg, limiter, store)

	addr := ":" + cfg.SERVER_PORT

	listenErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		} else {
			listenErr <- nil
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			log.Error("Server listen error", zap.Error(err))
			return
		}
	}

	log.Info("Starting graceful shutdown...")
	if err := app.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			log.Error("Server shutdown error", zap.Error(err))
		}
	} else {
		log.Info("Server gracefully stopped.")
	}

	log.Info("Application shutdown complete.")
}
