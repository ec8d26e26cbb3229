package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/vendapos/venda-backend/api/routes"
	"github.com/vendapos/venda-backend/internal/campaigns"
	checkoutsvc "github.com/vendapos/venda-backend/internal/checkout"
	"github.com/vendapos/venda-backend/internal/customers"
	"github.com/vendapos/venda-backend/internal/pricing"
	"github.com/vendapos/venda-backend/internal/products"
	"github.com/vendapos/venda-backend/internal/sales"
	"github.com/vendapos/venda-backend/internal/stock"
	"github.com/vendapos/venda-backend/pkg/config"
	"github.com/vendapos/venda-backend/pkg/db"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/metrics"
	"github.com/vendapos/venda-backend/pkg/migrate"
	"github.com/vendapos/venda-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	gorm := dbClient.DB()
	productRepo := products.NewRepository(gorm)
	customerRepo := customers.NewRepository(gorm)
	campaignRepo := campaigns.NewRepository(gorm)
	settingsRepo := pricing.NewSettingsRepository(gorm)
	saleRepo := sales.NewRepository(gorm)

	resolver, err := campaigns.NewCodeResolver(campaignRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promo resolver", err)
		os.Exit(1)
	}

	recorder, err := campaigns.NewRecorder(campaignRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create usage recorder", err)
		os.Exit(1)
	}

	defaultRate, err := decimal.NewFromString(cfg.Checkout.DefaultTaxRatePercent)
	if err != nil {
		logg.Error(context.Background(), "invalid default tax rate", err)
		os.Exit(1)
	}
	rateLoader, err := pricing.NewRateLoader(settingsRepo, defaultRate, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate loader", err)
		os.Exit(1)
	}

	stockValidator, err := stock.NewValidator(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock validator", err)
		os.Exit(1)
	}

	pointValue, err := decimal.NewFromString(cfg.Checkout.PointValue)
	if err != nil {
		logg.Error(context.Background(), "invalid point value", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkoutService, err := checkoutsvc.NewService(
		productRepo,
		customerRepo,
		campaignRepo,
		resolver,
		rateLoader,
		stockValidator,
		saleRepo,
		recorder,
		checkoutMetrics,
		logg,
		checkoutsvc.Options{
			PointValue:    pointValue,
			CommitTimeout: cfg.Checkout.CommitTimeout,
			WalkInName:    cfg.Checkout.WalkInCustomerName,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	manager, err := checkoutsvc.NewManager(checkoutService, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			productRepo,
			customerRepo,
			resolver,
			saleRepo,
			manager,
			registry,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
