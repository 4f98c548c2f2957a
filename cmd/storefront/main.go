package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/huertohogar/storefront/internal/di"
	"github.com/huertohogar/storefront/internal/handlers"
	"github.com/huertohogar/storefront/internal/platform/config"
	"github.com/huertohogar/storefront/internal/platform/observability"
)

var version = "dev"

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	cfg, err := config.Load(ctx)
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	registry, firestoreProvider, err := di.OpenRegistry(cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, registry, di.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	healthOpts := []handlers.HealthOption{
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithHealthVersion(version),
	}
	if firestoreProvider != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		}))
	}

	svc := container.Services
	maxBody := cfg.Server.MaxBodyBytes
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	var opts []handlers.Option
	opts = append(opts, handlers.WithMiddlewares(middlewares...))
	opts = append(opts, handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)))
	opts = append(opts, handlers.WithSessionMiddlewares(handlers.SessionMiddleware(cfg.Session.Header, cfg.Session.CustomerHeader)))
	opts = append(opts, handlers.WithProductRoutes(handlers.NewProductHandlers(svc.Catalog, svc.Customers, maxBody).Routes))
	opts = append(opts, handlers.WithCartRoutes(handlers.NewCartHandlers(svc.Carts, svc.Catalog, maxBody).Routes))
	opts = append(opts, handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(svc.Checkout, maxBody).Routes))
	opts = append(opts, handlers.WithNotificationRoutes(handlers.NewNotificationHandlers(svc.Notifications).Routes))
	opts = append(opts, handlers.WithOrderRoutes(handlers.NewOrderHandlers(svc.Orders).Routes))
	opts = append(opts, handlers.WithCustomerRoutes(handlers.NewCustomerHandlers(svc.Customers, maxBody).Routes))
	opts = append(opts, handlers.WithAdminRoutes(handlers.NewAdminHandlers(svc.Orders, svc.Catalog, svc.Customers, maxBody).Routes))

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.String("storage", cfg.Storage.Backend))
	go func() {
		serverLogger.Info("huertohogar storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
