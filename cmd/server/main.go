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

	appbundle "github.com/fieldstock/backend/internal/application/bundle"
	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	appsite "github.com/fieldstock/backend/internal/application/site"
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/infrastructure/config"
	"github.com/fieldstock/backend/internal/infrastructure/event"
	"github.com/fieldstock/backend/internal/infrastructure/logger"
	"github.com/fieldstock/backend/internal/infrastructure/persistence"
	"github.com/fieldstock/backend/internal/interfaces/http/handler"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fieldstock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
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
	itemRepo := persistence.NewGormItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	deploymentRepo := persistence.NewGormDeploymentRepository(db.DB)
	challanRepo := persistence.NewGormChallanRepository(db.DB, cfg.Ledger.ChallanNumberPrefix)
	returnRecordRepo := persistence.NewGormReturnRecordRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)

	// Transaction scopes
	ledgerScope := persistence.NewGormLedgerScope(db.DB)
	dispatchScope := persistence.NewGormDispatchScope(db.DB, cfg.Ledger.ChallanNumberPrefix)

	// Event bus with structured audit logging of every domain event
	eventBus := shared.NewInMemoryEventBus()
	eventBus.Subscribe(event.NewAuditLogger(log))

	// Application services
	ledgerService := appinventory.NewLedgerService(ledgerScope, itemRepo, movementRepo)
	ledgerService.SetMaxRetries(cfg.Ledger.MaxConflictRetries)
	ledgerService.SetEventPublisher(eventBus)

	deploymentService := appsite.NewDeploymentService(ledgerScope, deploymentRepo)
	deploymentService.SetMaxRetries(cfg.Ledger.MaxConflictRetries)
	deploymentService.SetEventPublisher(eventBus)

	bundleService := appbundle.NewBundleService(templateRepo, deploymentRepo, ledgerService)

	challanService := appdispatch.NewChallanService(dispatchScope, challanRepo)
	challanService.SetMaxRetries(cfg.Ledger.MaxConflictRetries)
	challanService.SetEventPublisher(eventBus)

	returnService := appdispatch.NewReturnService(dispatchScope, challanRepo, returnRecordRepo)
	returnService.SetMaxRetries(cfg.Ledger.MaxConflictRetries)
	returnService.SetEventPublisher(eventBus)

	// HTTP handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	deploymentHandler := handler.NewDeploymentHandler(deploymentService)
	bundleHandler := handler.NewBundleHandler(bundleService)
	challanHandler := handler.NewChallanHandler(challanService, returnService)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS, body size limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(ledgerHandler.Routes())
	r.Register(deploymentHandler.Routes())
	r.Register(bundleHandler.Routes())
	r.Register(challanHandler.Routes())
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process and database health
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
