package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yasboss/storefront-backend/api/routes"
	"github.com/yasboss/storefront-backend/internal/audit"
	"github.com/yasboss/storefront-backend/internal/catalog"
	checkoutsvc "github.com/yasboss/storefront-backend/internal/checkout"
	"github.com/yasboss/storefront-backend/internal/coupons"
	"github.com/yasboss/storefront-backend/internal/orders"
	"github.com/yasboss/storefront-backend/internal/rewards"
	"github.com/yasboss/storefront-backend/internal/settings"
	"github.com/yasboss/storefront-backend/internal/shipments"
	"github.com/yasboss/storefront-backend/pkg/config"
	"github.com/yasboss/storefront-backend/pkg/db"
	"github.com/yasboss/storefront-backend/pkg/logger"
	"github.com/yasboss/storefront-backend/pkg/metrics"
	"github.com/yasboss/storefront-backend/pkg/migrate"
	"github.com/yasboss/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	settingsService, err := settings.NewService(settings.NewRepository(gormDB), redisClient, cfg.Checkout, cfg.Cache.SettingsTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gormDB), redisClient, cfg.Cache.CatalogTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	auditRecorder, err := audit.NewRecorder(gormDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(rewards.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:           ordersRepo,
		Tx:             dbClient,
		Rewards:        rewardsService,
		Audit:          auditRecorder,
		Idempotency:    redisClient,
		IdempotencyTTL: cfg.Payments.IdempotencyTTL,
		Logger:         logg,
		Settings:       settingsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Repo:    ordersRepo,
		Tx:      dbClient,
		Catalog: catalogService,
		Coupons: couponsService,
		Rewards: rewardsService,
		Pricing: settingsService,
		Audit:   auditRecorder,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	shipmentsService, err := shipments.NewService(shipments.ServiceParams{
		Repo:    shipments.NewRepository(gormDB),
		Orders:  ordersRepo,
		Applier: ordersService,
		Logger:  logg,
		Metrics: metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Checkout:  checkoutService,
			Orders:    ordersService,
			Coupons:   couponsService,
			Rewards:   rewardsService,
			Shipments: shipmentsService,
			Settings:  settingsService,
			Catalog:   catalogService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
