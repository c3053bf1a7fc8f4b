package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/infrastructure/cache"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/infrastructure/persistence"
	"github.com/lotledger/backend/internal/interfaces/http/handler"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"github.com/lotledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting inventory ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	seqRepo := persistence.NewGormSequenceRepository(db.DB)

	// Application services
	batchService := inventoryapp.NewBatchService(batchRepo, productRepo, movementRepo, log)
	saleService := inventoryapp.NewSaleService(batchRepo, productRepo, movementRepo, seqRepo, log)
	productService := inventoryapp.NewProductService(productRepo, log)
	receivingService := inventoryapp.NewReceivingService(batchService, productRepo, seqRepo, log)
	valuationService := inventoryapp.NewValuationService(batchRepo, productRepo, log)

	// Optional Redis stock cache; the database stays the source of truth
	var stockCache *cache.RedisStockCache
	if cfg.Redis.Enabled {
		stockCache, err = cache.NewRedisStockCache(cfg.Redis, cache.WithStockCacheLogger(log))
		if err != nil {
			log.Warn("Redis unavailable, continuing without stock cache", zap.Error(err))
		} else {
			batchService.SetStockCache(stockCache)
			saleService.SetStockCache(stockCache)
			productService.SetStockCache(stockCache)
			log.Info("Redis stock cache attached", zap.String("addr", cfg.Redis.Addr()))
			defer func() {
				if err := stockCache.Close(); err != nil {
					log.Error("Error closing Redis client", zap.Error(err))
				}
			}()
		}
	}

	// Gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	// Routes
	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db)).
		Register(handler.NewProductHandler(productService, batchService)).
		Register(handler.NewBatchHandler(batchService)).
		Register(handler.NewSaleHandler(saleService)).
		Register(handler.NewReceivingHandler(receivingService)).
		Register(handler.NewValuationHandler(valuationService)).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Optional expiry sweep: write off lots whose expiry date has passed
	sweepDone := make(chan struct{})
	if cfg.Expiry.SweepEnabled {
		go runExpirySweep(cfg.Expiry.SweepInterval, batchService, log, sweepDone)
	} else {
		close(sweepDone)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	if cfg.Expiry.SweepEnabled {
		close(sweepDone)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runExpirySweep periodically marks lots past their expiry date as expired
func runExpirySweep(interval time.Duration, batches *inventoryapp.BatchService, log *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			count, err := batches.MarkExpiredBatches(ctx, time.Now())
			cancel()
			if err != nil {
				log.Error("Expiry sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				log.Info("Expiry sweep wrote off batches", zap.Int("count", count))
			}
		}
	}
}
