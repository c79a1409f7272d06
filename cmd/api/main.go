package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisv9 "github.com/redis/go-redis/v9"

	"promotion/internal/cache"
	"promotion/internal/config"
	"promotion/internal/database"
	"promotion/internal/handler"
	"promotion/internal/middleware"
	"promotion/internal/repository"
	"promotion/internal/service/promotion"
	"promotion/internal/service/stock"
	"promotion/pkg/log"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Failed to load config")
	}

	logConfig := log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}
	log.Init(logConfig)

	// database
	if err := database.Init(cfg); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Failed to initialize database")
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Failed to run migrations")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// repositories
	activityRepo := repository.NewActivityRepository(db)
	productRepo := repository.NewActivityProductRepository(db)
	ruleRepo := repository.NewDiscountRuleRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// caches
	summaries, err := cache.NewSummaryCache(cfg.Cache.SummaryTTL)
	if err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Failed to create summary cache")
	}

	filter := cache.NewProductFilter(cfg.Cache.FilterSize, cfg.Cache.FilterFPRate)
	if cfg.Cache.WarmFilterOnStart {
		warmProductFilter(filter, productRepo)
	}

	// usage tracking: redis fast path when available, persisted ledger otherwise
	var usageProvider promotion.UsageProvider
	if cfg.Redis.Enabled {
		redisClient := redisv9.NewClient(&redisv9.Options{
			Addr:         cfg.Redis.GetAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		cancel()

		usageProvider = promotion.NewRedisUsageProvider(redisClient)
	} else {
		usageProvider = promotion.NewLedgerUsageProvider(usageRepo)
	}

	// engine
	engineCfg := promotion.Config{
		MaxStackable:         cfg.Engine.MaxStackable,
		ExclusivePriority:    cfg.Engine.ExclusivePriority,
		ProjectedRateCeiling: cfg.Engine.ProjectedRateCeiling,
		MaxDailyUsage:        cfg.Engine.MaxDailyUsage,
		DiscountRateCeiling:  cfg.Engine.DiscountRateCeiling,
		DailyAmountCap:       cfg.Engine.DailyAmountCap,
	}
	clock := promotion.SystemClock()

	resolver := promotion.NewConflictResolver(activityRepo, engineCfg)
	selector := promotion.NewStackingSelector(engineCfg, resolver)
	calculator := promotion.NewRuleCalculator()
	enforcer := promotion.NewLimitEnforcer(engineCfg, usageProvider, clock)
	discountService := promotion.NewDiscountEngine(productRepo, ruleRepo, selector, calculator, enforcer, filter, clock)

	stockService := stock.NewStockService(db, summaries, stock.Options{
		Strict: cfg.Engine.StrictStock,
	})

	// handlers
	discountHandler := handler.NewDiscountHandler(discountService)
	stockHandler := handler.NewStockHandler(stockService)
	activityHandler := handler.NewActivityHandler(activityRepo, productRepo, resolver, summaries, clock)

	router := setupRouter(cfg, discountHandler, stockHandler, activityHandler)

	server := &http.Server{
		Addr:           cfg.Server.GetAddr(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": server.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	discountHandler *handler.DiscountHandler,
	stockHandler *handler.StockHandler,
	activityHandler *handler.ActivityHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateBurst))

	router.GET("/health", healthCheck)
	router.GET("/ping", ping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.POST("/discounts/calculate", discountHandler.Calculate)

			activities := v1.Group("/activities")
			{
				activities.GET("", activityHandler.ListActive)
				activities.GET("/conflicts", activityHandler.Conflicts)
				activities.GET("/:id/products/:product_id/summary", activityHandler.ProductSummary)

				stockGroup := activities.Group("/:id/stock")
				{
					stockGroup.POST("/decrease", stockHandler.Decrease)
					stockGroup.POST("/increase", stockHandler.Increase)
					stockGroup.POST("/set", stockHandler.SetStock)
					stockGroup.POST("/batch-decrease", stockHandler.BatchDecrease)
					stockGroup.POST("/batch-increase", stockHandler.BatchIncrease)
				}
			}

			v1.GET("/products/:id/activity", activityHandler.HighestPriority)
		}
	}

	return router
}

// warmProductFilter preloads the bloom filter from the bound product listing
func warmProductFilter(filter *cache.ProductFilter, productRepo repository.ActivityProductRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	productIDs, err := productRepo.ListProductIDs(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to warm product filter")
		return
	}
	filter.Warm(productIDs)
	log.WithFields(map[string]interface{}{
		"products": len(productIDs),
	}).Info("Product filter warmed")
}

func healthCheck(c *gin.Context) {
	dbHealth := checkDatabase()

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
		"services": map[string]interface{}{
			"database": dbHealth,
		},
	}

	if !dbHealth["healthy"].(bool) {
		health["status"] = "error"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

func ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().Unix(),
	})
}

func checkDatabase() map[string]interface{} {
	db := database.GetDB()
	if db == nil {
		return map[string]interface{}{
			"healthy": false,
			"error":   "database connection is nil",
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return map[string]interface{}{
			"healthy": false,
			"error":   err.Error(),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return map[string]interface{}{
			"healthy": false,
			"error":   err.Error(),
		}
	}

	return map[string]interface{}{
		"healthy": true,
		"status":  "connected",
	}
}
