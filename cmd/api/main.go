package main

import (
	"context"
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saparov/charter-booking/internal/pricing"
	"github.com/saparov/charter-booking/internal/rates"
	"github.com/saparov/charter-booking/internal/trips"
	"github.com/saparov/charter-booking/internal/vehicles"
	"github.com/saparov/charter-booking/pkg/common"
	"github.com/saparov/charter-booking/pkg/config"
	"github.com/saparov/charter-booking/pkg/database"
	"github.com/saparov/charter-booking/pkg/logger"
	"github.com/saparov/charter-booking/pkg/middleware"
	redisClient "github.com/saparov/charter-booking/pkg/redis"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load("booking-api")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL")

	// Redis is optional: without it quotes are recomputed on every request.
	var quoteCache trips.QuoteCache
	var redisPing func() error
	if cfg.Redis.Enabled {
		rdb, err := redisClient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, quote caching disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			quoteCache = rdb
			redisPing = func() error { return rdb.Ping(context.Background()).Err() }
			logger.Info("Connected to Redis")
		}
	}

	// Repositories and services
	ratesRepo := rates.NewRepository(pool)
	ratesService := rates.NewService(ratesRepo, cfg.Pricing.DefaultTaxRate, cfg.Pricing.SettingsCacheTTL)
	if err := ratesService.Seed(context.Background()); err != nil {
		logger.Fatal("Failed to seed rate table", zap.Error(err))
	}

	engine := pricing.NewEngine(ratesService)
	vehiclesRepo := vehicles.NewRepository(pool)
	tripsRepo := trips.NewRepository(pool)
	tripsService := trips.NewService(tripsRepo, vehiclesRepo, engine, quoteCache, cfg.Pricing.QuoteCacheTTL)

	ratesHandler := rates.NewHandler(ratesService)
	tripsHandler := trips.NewHandler(tripsService)

	// Router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}

	router.Use(
		middleware.Recovery(),
		middleware.CorrelationID(),
		middleware.RequestLogger(),
		middleware.Metrics(cfg.Server.ServiceName),
		middleware.SecurityHeaders(),
		cors.New(corsConfig),
	)

	healthChecks := map[string]func() error{
		"postgres": func() error { return pool.Ping(context.Background()) },
	}
	if redisPing != nil {
		healthChecks["redis"] = redisPing
	}
	router.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, serviceVersion, healthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		tripsHandler.RegisterRoutes(api)

		admin := api.Group("/admin", middleware.Identity(cfg.JWT.Secret))
		ratesHandler.RegisterRoutes(admin)
	}

	addr := ":" + cfg.Server.Port
	logger.Info("Booking API starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
