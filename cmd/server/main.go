package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appinv "github.com/kitchenops/backend/internal/application/inventory"
	"github.com/kitchenops/backend/internal/domain/shared/valueobject"
	"github.com/kitchenops/backend/internal/infrastructure/auth"
	"github.com/kitchenops/backend/internal/infrastructure/cache"
	"github.com/kitchenops/backend/internal/infrastructure/config"
	"github.com/kitchenops/backend/internal/infrastructure/event"
	"github.com/kitchenops/backend/internal/infrastructure/logger"
	"github.com/kitchenops/backend/internal/infrastructure/persistence"
	"github.com/kitchenops/backend/internal/infrastructure/scheduler"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/kitchenops/backend/internal/interfaces/http/handler"
	"github.com/kitchenops/backend/internal/interfaces/http/middleware"
	"github.com/kitchenops/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "dev"

//	@title			Kitchen Inventory Ledger API
//	@version		1.0
//	@description	Multi-tenant restaurant inventory with FIFO batches and an append-only stock ledger

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	bootLog, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// The OTLP log bridge must exist before the final logger so every entry is exported
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logger.FromAppConfig(cfg), logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting kitchen ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingSpanProfiles {
		tracerProvider.EnableSpanProfiles(profiler)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = profiler.Stop()
		_ = tracerProvider.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = logProvider.Shutdown(shutdownCtx)
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, db.Driver), log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Postgres schemas are managed by cmd/migrate
	if db.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	// Redis is optional: without it idempotency keys and revoked tokens stay in process memory
	var redisClient *redis.Client
	if cfg.Redis.RedisEnabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	idempotencyStore := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Inventory service
	ledgerMetrics, err := telemetry.NewLedgerMetricsFromProvider(meterProvider)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	serviceConfig := appinv.DefaultServiceConfig()
	if currency, err := valueobject.ParseCurrency(cfg.Inventory.DefaultCurrency); err == nil {
		serviceConfig.DefaultCurrency = currency
	}
	serviceConfig.ExpiryWindowDays = cfg.Inventory.ExpiryWindowDays
	serviceConfig.MaxConflictRetries = cfg.Inventory.MaxConflictRetries
	serviceConfig.ExpirySweepLimit = cfg.Inventory.ExpirySweepLimit

	inventoryService := appinv.NewInventoryService(
		persistence.NewGormIngredientRepository(db.DB),
		persistence.NewGormBatchRepository(db.DB),
		persistence.NewGormStockTransactionRepository(db.DB),
		persistence.NewGormTransactionScope(db.DB),
		serviceConfig,
	)
	inventoryService.SetLogger(log)
	inventoryService.SetMetrics(ledgerMetrics)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	stockLowHandler := appinv.NewStockLowHandler(log).
		WithNotifier(appinv.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(stockLowHandler, stockLowHandler.EventTypes()...)
	if redisClient != nil {
		forwarder := event.NewRedisForwarder(redisClient, event.NewInventorySerializer(), event.DefaultChannelPrefix)
		eventBus.Subscribe(forwarder, forwarder.EventTypes()...)
		log.Info("Forwarding inventory events to redis", zap.String("channel_prefix", event.DefaultChannelPrefix))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	inventoryService.SetEventPublisher(eventBus)

	// Expiry sweeper
	sweeper, err := scheduler.NewExpirySweeper(scheduler.SweeperConfigFrom(cfg.Inventory), inventoryService, log)
	if err != nil {
		log.Fatal("Invalid expiry sweeper configuration", zap.Error(err))
	}
	sweeper.SetMetrics(ledgerMetrics)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			log.Error("Error stopping expiry sweeper", zap.Error(err))
		}
	}()

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(meterProvider, log))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Required = cfg.JWT.Required
	jwtConfig.TokenBlacklist = auth.NewTokenBlacklist(redisClient)
	jwtConfig.Logger = log

	inventoryHandler := handler.NewInventoryHandler(inventoryService)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.SpanAttributes(),
		middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  idempotencyStore,
			TTL:    cfg.Inventory.IdempotencyTTL,
			Logger: log,
		}),
	)
	r.Register(router.IngredientRoutes(inventoryHandler)).
		Register(router.ExpiryRoutes(inventoryHandler)).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
