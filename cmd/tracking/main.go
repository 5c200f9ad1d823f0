package main

import (
	"context"
	"log"
	"time"

	"github.com/kurirapp/kurir/internal/pkg/config"
	"github.com/kurirapp/kurir/internal/pkg/database"
	"github.com/kurirapp/kurir/internal/pkg/logger"
	"github.com/kurirapp/kurir/internal/pkg/middleware"
	natspkg "github.com/kurirapp/kurir/internal/pkg/nats"
	"github.com/kurirapp/kurir/internal/pkg/server"
	"github.com/kurirapp/kurir/services/tracking/admission"
	"github.com/kurirapp/kurir/services/tracking/batcher"
	"github.com/kurirapp/kurir/services/tracking/broadcast"
	"github.com/kurirapp/kurir/services/tracking/cache"
	"github.com/kurirapp/kurir/services/tracking/gateway"
	"github.com/kurirapp/kurir/services/tracking/handler"
	wsHandler "github.com/kurirapp/kurir/services/tracking/handler/websocket"
	"github.com/kurirapp/kurir/services/tracking/repository"
	"github.com/kurirapp/kurir/services/tracking/resolver"
	"github.com/kurirapp/kurir/services/tracking/usecase"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	configs := config.InitConfig(".env")

	appLogger, err := logger.NewZapLogger(configs.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.SetGlobalLogger(appLogger)
	defer appLogger.Close()

	// Infrastructure clients
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", logger.Err(err))
	}
	defer postgresClient.Close()

	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer redisClient.Close()

	natsClient, err := natspkg.NewClient(configs.NATS.URL)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", logger.Err(err))
	}
	defer natsClient.Close()

	// Repository and gateways
	locationRepo := repository.NewLocationRepository(postgresClient, redisClient)
	trackingGW := gateway.NewTrackingGW(natsClient)
	deliveryGW := gateway.NewDeliveryGW(configs.Services)

	// Pipeline components
	positionCache := cache.NewPositionCache(configs.Tracking.CacheTTL)
	positionCache.StartSweeper(configs.Tracking.SweepInterval)

	locationBatcher := batcher.NewBatcher(
		locationRepo,
		configs.Tracking.BatchSize,
		configs.Tracking.FlushInterval,
		configs.Tracking.FlushTimeout,
		configs.Tracking.RetentionLimit,
	)
	locationBatcher.Start()

	deliveryResolver := resolver.NewResolver(
		deliveryGW,
		configs.Tracking.ResolveTTL,
		configs.Tracking.NegativeTTL,
		configs.Tracking.ResolveTimeout,
	)

	registry := admission.NewRegistry(configs.Tracking.MaxConnections)

	// Use case (router is attached below, after the websocket manager exists)
	trackingUC := usecase.NewTrackingService(
		positionCache, locationBatcher, deliveryResolver, nil,
		locationRepo, trackingGW, deliveryGW,
	)

	wsManager := wsHandler.NewManager(trackingUC, registry, configs.JWT, configs.Tracking)
	router := broadcast.NewRouter(wsManager)
	wsManager.AttachRouter(router)
	trackingUC.AttachRouter(router)
	wsManager.StartReaper()

	// HTTP surface
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger())

	trackingHandler := handler.NewHandler(trackingUC, wsManager, natsClient, configs)
	trackingHandler.RegisterRoutes(e)

	if err := trackingHandler.InitNATSConsumers(); err != nil {
		logger.Fatal("Failed to initialize NATS consumers", logger.Err(err))
	}

	// Shutdown order: stop taking traffic, close sockets, flush the batcher.
	shutdownManager := server.NewShutdownManager()
	shutdownManager.Register(func(ctx context.Context) error {
		trackingHandler.DrainNATSConsumers()
		return nil
	})
	shutdownManager.Register(func(ctx context.Context) error {
		wsManager.Stop()
		return nil
	})
	shutdownManager.Register(func(ctx context.Context) error {
		positionCache.Stop()
		return nil
	})
	shutdownManager.Register(func(ctx context.Context) error {
		return locationBatcher.Stop(ctx)
	})

	srv := server.NewGracefulServer(e, configs.Server.Port,
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	if err := srv.Start(); err != nil {
		logger.Error("Server stopped with error", logger.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := shutdownManager.Shutdown(ctx); err != nil {
		logger.Error("Component shutdown failed", logger.Err(err))
	}
}
