package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/inventory-ds/inventory-ds/internal/app"
	"github.com/inventory-ds/inventory-ds/internal/audit"
	audithttp "github.com/inventory-ds/inventory-ds/internal/audit/http"
	"github.com/inventory-ds/inventory-ds/internal/auth"
	"github.com/inventory-ds/inventory-ds/internal/inventory"
	"github.com/inventory-ds/inventory-ds/internal/observability"
	"github.com/inventory-ds/inventory-ds/internal/platform/cache"
	"github.com/inventory-ds/inventory-ds/internal/platform/db"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
	"github.com/inventory-ds/inventory-ds/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.Postgres())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	rbacMiddleware := rbac.Middleware{Logger: logger}

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, logger, inventory.ServiceConfig{
		LowStockThreshold: cfg.LowStockThreshold,
		BcryptCost:        cfg.BcryptCost,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, sessionManager, inventoryService)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, rbacMiddleware)

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionMiddleware:  auth.SessionMiddleware(logger, authService, sessionManager),
		AuthHandler:        authHandler,
		InventoryHandler:   inventoryHandler,
		AuditHandler:       auditHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(rbacMiddleware),
		JobsHandler:        jobs.NewHandler(inspector, logger),
		Metrics:            observability.NewMetrics(),
		HealthChecks: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
