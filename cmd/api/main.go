// Command api serves the catalog HTTP API.
//
// @title                       Catalog API
// @version                     1.0
// @description                 Category, subcategory and product catalog with cascading deletes.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inventario/catalog-api/internal/api"
	"github.com/inventario/catalog-api/internal/core/service"
	mongodb "github.com/inventario/catalog-api/internal/infrastructure/db/mongo"
	redisdb "github.com/inventario/catalog-api/internal/infrastructure/db/redis"
	"github.com/inventario/catalog-api/internal/infrastructure/http/handlers"
	"github.com/inventario/catalog-api/internal/infrastructure/queue"
	"github.com/inventario/catalog-api/internal/pkg/config"
	"github.com/inventario/catalog-api/pkg/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		panic("load config: " + err.Error())
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "catalog-api",
	})
	log := logger.Get()
	log.Info().
		Str("env", cfg.Env).
		Str("version", version).
		Msg("starting catalog api")

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}

	if cfg.MigrateOnStart {
		report, err := mongodb.NewIndexMigrator(db, logger.Component("migrate")).Migrate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("index migration")
		}
		log.Info().
			Strs("dropped", report.Dropped).
			Strs("created", report.Created).
			Msg("indexes reconciled")
	}

	redisCfg := redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	rdb, err := redisdb.Connect(ctx, redisCfg)
	if err != nil {
		// Cascades run unlocked until Redis answers again.
		log.Warn().Err(err).Msg("redis unavailable at startup")
		rdb = redisdb.NewClient(redisCfg)
	}

	categoryRepo := mongodb.NewCategoryRepository(db)
	subcategoryRepo := mongodb.NewSubcategoryRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	// --- Audit workers ---
	workerCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.Cascade.AuditWorkers, auditRepo, logger.Component("audit"))
	dispatcher.Start(workerCtx)

	// --- Services ---
	cascadeLock := redisdb.NewCascadeLock(rdb, cfg.Cascade.LockTTL)
	coordinator := service.NewCascadeService(
		categoryRepo,
		subcategoryRepo,
		productRepo,
		cascadeLock,
		dispatcher,
		cfg.Cascade.StepTimeout,
		logger.Component("cascade"),
	)
	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessExpiration,
		RefreshTTL: cfg.Auth.RefreshExpiration,
		HashCost:   cfg.Auth.SaltRounds,
	}, logger.Component("auth"))

	e := api.NewRouter(api.RouterDeps{
		Categories:    service.NewCategoryService(categoryRepo, logger.Component("categories")),
		Subcategories: service.NewSubcategoryService(subcategoryRepo, categoryRepo, productRepo, cascadeLock, logger.Component("subcategories")),
		Products:      service.NewProductService(productRepo, categoryRepo, subcategoryRepo, logger.Component("products")),
		Coordinator:   coordinator,
		Auth:          authService,
		Audits:        auditRepo,
		HealthChecks:  []handlers.Check{handlers.MongoCheck(db), handlers.RedisCheck(rdb)},
		JWTSecret:     cfg.Auth.JWTSecret,
		Version:       version,
		Log:           logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// Stop workers after the server so in-flight cascades can still enqueue.
	stopWorkers()
	dispatcher.Wait()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	log.Info().Msg("stopped")
}
